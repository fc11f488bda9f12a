package routes

import (
	"errors"

	"pokerpulse-server/models"
	"pokerpulse-server/storage"
	"pokerpulse-server/utils"
	"pokerpulse-server/ws"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errGameNotFound = errors.New("game not found")
	errGameFull     = errors.New("game is full")
)

const goingCountSelect = "(SELECT COUNT(*) FROM rsvps WHERE rsvps.game_id = games.id AND rsvps.status = 'going') AS going_count"

// GameSummary is a game annotated with host display info and a live count of
// going RSVPs, the shape every list endpoint returns.
type GameSummary struct {
	models.Game
	HostName   string `json:"hostName"`
	HostAvatar string `json:"hostAvatar"`
	GoingCount int64  `json:"goingCount"`
}

type AttendingGame struct {
	models.Game
	HostName     string `json:"hostName"`
	HostAvatar   string `json:"hostAvatar"`
	GoingCount   int64  `json:"goingCount"`
	MyRsvpStatus string `json:"myRsvpStatus"`
}

type GameDetail struct {
	GameSummary
	Rsvps []RsvpWithUser `json:"rsvps"`
}

type RsvpWithUser struct {
	models.Rsvp
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarURL"`
}

func gameSummaryQuery() *gorm.DB {
	return storage.DB.Model(&models.Game{}).
		Select("games.*, users.display_name AS host_name, users.avatar_url AS host_avatar, " + goingCountSelect).
		Joins("LEFT JOIN users ON users.id = games.host_id")
}

func ListGames(ctx iris.Context) {
	query := gameSummaryQuery().Where("games.status = ?", models.GameStatusActive)

	if date := ctx.URLParam("date"); date != "" {
		query = query.Where("games.date = ?", date)
	}
	if gameType := ctx.URLParam("type"); gameType != "" {
		query = query.Where("games.game_type = ?", gameType)
	}
	if hostID := ctx.URLParam("host_id"); hostID != "" {
		query = query.Where("games.host_id = ?", hostID)
	}
	if isPublic := ctx.URLParam("public"); isPublic != "" {
		query = query.Where("games.is_public = ?", isPublic == "true")
	}

	var games []GameSummary
	if err := query.Order("games.date ASC, games.time ASC").Find(&games).Error; err != nil {
		utils.LogError("list games", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(games)
}

func MyGames(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	var games []GameSummary
	err := gameSummaryQuery().
		Where("games.host_id = ?", claims.ID).
		Order("games.date ASC, games.time ASC").
		Find(&games).Error
	if err != nil {
		utils.LogError("my games", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(games)
}

func GetGame(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	var game GameSummary
	gameQuery := gameSummaryQuery().Where("games.id = ?", id).Limit(1).Find(&game)
	if gameQuery.Error != nil {
		utils.LogError("get game", gameQuery.Error)
		utils.CreateInternalServerError(ctx)
		return
	}
	if gameQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	rsvps, err := rsvpsForGame(id)
	if err != nil {
		utils.LogError("get game rsvps", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(GameDetail{GameSummary: game, Rsvps: rsvps})
}

func CreateGame(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	var input CreateGameInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	game := models.Game{
		HostID:     claims.ID,
		Name:       input.Name,
		Date:       input.Date,
		Time:       input.Time,
		Location:   input.Location,
		MaxPlayers: input.MaxPlayers,
		BuyIn:      input.BuyIn,
		GameType:   input.GameType,
		Notes:      input.Notes,
		IsPublic:   &isPublic,
		Status:     models.GameStatusActive,
	}

	if err := storage.DB.Create(&game).Error; err != nil {
		utils.LogError("create game", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	// The host always holds a seat at their own game.
	if err := upsertRsvp(storage.DB, game.ID, claims.ID, models.RsvpStatusGoing, ""); err != nil {
		utils.LogError("host auto-rsvp", err)
	}

	ws.Registry.Broadcast("game:created", map[string]interface{}{"game": game})

	ctx.JSON(game)
}

func UpdateGame(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	var game models.Game
	gameQuery := storage.DB.Limit(1).Find(&game, id)
	if gameQuery.Error != nil {
		utils.LogError("update game lookup", gameQuery.Error)
		utils.CreateInternalServerError(ctx)
		return
	}
	if gameQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	if game.HostID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	var input UpdateGameInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	// nil leaves the stored value untouched
	if input.Name != nil {
		game.Name = *input.Name
	}
	if input.Date != nil {
		game.Date = *input.Date
	}
	if input.Time != nil {
		game.Time = *input.Time
	}
	if input.Location != nil {
		game.Location = *input.Location
	}
	if input.MaxPlayers != nil {
		game.MaxPlayers = *input.MaxPlayers
	}
	if input.BuyIn != nil {
		game.BuyIn = *input.BuyIn
	}
	if input.GameType != nil {
		game.GameType = *input.GameType
	}
	if input.Notes != nil {
		game.Notes = *input.Notes
	}
	if input.IsPublic != nil {
		game.IsPublic = input.IsPublic
	}

	if err := storage.DB.Save(&game).Error; err != nil {
		utils.LogError("update game", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ws.Registry.Broadcast("game:updated", map[string]interface{}{"game": game})

	ctx.JSON(game)
}

// CancelGame soft-cancels: the row stays, the status flips. There is no way
// back to active.
func CancelGame(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	var game models.Game
	gameQuery := storage.DB.Limit(1).Find(&game, id)
	if gameQuery.Error != nil {
		utils.LogError("cancel game lookup", gameQuery.Error)
		utils.CreateInternalServerError(ctx)
		return
	}
	if gameQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	if game.HostID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	if err := storage.DB.Model(&game).Update("status", models.GameStatusCancelled).Error; err != nil {
		utils.LogError("cancel game", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ws.Registry.Broadcast("game:cancelled", map[string]interface{}{"gameId": game.ID})

	ctx.JSON(iris.Map{"success": true})
}

func ListGameRsvps(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	rsvps, rsvpErr := rsvpsForGame(id)
	if rsvpErr != nil {
		utils.LogError("list rsvps", rsvpErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(rsvps)
}

// SubmitRsvp upserts the caller's response. The capacity check and the
// write run in one transaction with the game row locked, so two concurrent
// submissions cannot both take the last seat.
func SubmitRsvp(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	var input SubmitRsvpInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(models.RsvpStatuses, input.Status) {
		utils.CreateError(iris.StatusBadRequest, "Invalid status", ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		gameQuery := lockForUpdate(tx).Limit(1).Find(&game, id)
		if gameQuery.Error != nil {
			return gameQuery.Error
		}
		if gameQuery.RowsAffected == 0 {
			return errGameNotFound
		}

		if input.Status == models.RsvpStatusGoing {
			// The caller's own existing seat doesn't count against them.
			var goingCount int64
			countErr := tx.Model(&models.Rsvp{}).
				Where("game_id = ? AND status = ? AND user_id <> ?", game.ID, models.RsvpStatusGoing, claims.ID).
				Count(&goingCount).Error
			if countErr != nil {
				return countErr
			}
			if goingCount >= int64(game.MaxPlayers) {
				return errGameFull
			}
		}

		return upsertRsvp(tx, game.ID, claims.ID, input.Status, input.Message)
	})

	switch {
	case errors.Is(txErr, errGameNotFound):
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	case errors.Is(txErr, errGameFull):
		utils.CreateError(iris.StatusConflict, "Game is full", ctx)
		return
	case txErr != nil:
		utils.LogError("submit rsvp", txErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	rsvp, rsvpErr := myRsvp(id, claims.ID)
	if rsvpErr != nil || rsvp == nil {
		utils.LogError("submit rsvp readback", rsvpErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	ws.Registry.Broadcast("rsvp:updated", map[string]interface{}{"rsvp": rsvp, "gameId": id})

	ctx.JSON(rsvp)
}

// GetMyRsvp returns the caller's RSVP row, or JSON null when they have none.
func GetMyRsvp(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	rsvp, rsvpErr := myRsvp(id, claims.ID)
	if rsvpErr != nil {
		utils.LogError("my rsvp", rsvpErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(rsvp)
}

func rsvpsForGame(gameID uint) ([]RsvpWithUser, error) {
	rsvps := make([]RsvpWithUser, 0)
	err := storage.DB.Model(&models.Rsvp{}).
		Select("rsvps.*, users.display_name, users.avatar_url").
		Joins("LEFT JOIN users ON users.id = rsvps.user_id").
		Where("rsvps.game_id = ?", gameID).
		Find(&rsvps).Error
	return rsvps, err
}

func myRsvp(gameID, userID uint) (*RsvpWithUser, error) {
	var rsvp RsvpWithUser
	rsvpQuery := storage.DB.Model(&models.Rsvp{}).
		Select("rsvps.*, users.display_name, users.avatar_url").
		Joins("LEFT JOIN users ON users.id = rsvps.user_id").
		Where("rsvps.game_id = ? AND rsvps.user_id = ?", gameID, userID).
		Limit(1).Find(&rsvp)
	if rsvpQuery.Error != nil {
		return nil, rsvpQuery.Error
	}
	if rsvpQuery.RowsAffected == 0 {
		return nil, nil
	}
	return &rsvp, nil
}

func upsertRsvp(db *gorm.DB, gameID, userID uint, status, message string) error {
	rsvp := models.Rsvp{GameID: gameID, UserID: userID, Status: status, Message: message}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "message", "updated_at"}),
	}).Create(&rsvp).Error
}

// lockForUpdate takes a row lock where the dialect supports it; the sqlite
// test database serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

type CreateGameInput struct {
	Name       string `json:"name" validate:"required,max=255"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
	Location   string `json:"location" validate:"required,max=500"`
	MaxPlayers int    `json:"maxPlayers" validate:"required,gte=2,lte=20"`
	BuyIn      string `json:"buyIn" validate:"max=50"`
	GameType   string `json:"gameType" validate:"required,max=50"`
	Notes      string `json:"notes"`
	IsPublic   *bool  `json:"isPublic"`
}

type UpdateGameInput struct {
	Name       *string `json:"name" validate:"omitempty,max=255"`
	Date       *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time       *string `json:"time" validate:"omitempty,datetime=15:04"`
	Location   *string `json:"location" validate:"omitempty,max=500"`
	MaxPlayers *int    `json:"maxPlayers" validate:"omitempty,gte=2,lte=20"`
	BuyIn      *string `json:"buyIn" validate:"omitempty,max=50"`
	GameType   *string `json:"gameType" validate:"omitempty,max=50"`
	Notes      *string `json:"notes"`
	IsPublic   *bool   `json:"isPublic"`
}

type SubmitRsvpInput struct {
	Status  string `json:"status" validate:"required"`
	Message string `json:"message"`
}
