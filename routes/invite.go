package routes

import (
	"strings"
	"time"

	"pokerpulse-server/models"
	"pokerpulse-server/services"
	"pokerpulse-server/storage"
	"pokerpulse-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/gorm/clause"
)

const (
	// 24 random bytes, hex encoded: 192 bits per invite link.
	inviteTokenBytes = 24
	inviteTTL        = 7 * 24 * time.Hour
)

// GameSnapshot carries the public game fields attached to each invite in
// the send response.
type GameSnapshot struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	GameType string `json:"gameType"`
}

type InviteWithGame struct {
	models.Invite
	Game GameSnapshot `json:"game"`
}

// InviteDetail is an invite merged with its game and host display info, the
// shape the public token lookup returns.
type InviteDetail struct {
	models.Invite
	GameName string `json:"gameName"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	GameType string `json:"gameType"`
	HostName string `json:"hostName"`
}

// SendInvites issues one tokenized invite per address. Re-inviting an
// address replaces its token and resets the status to pending. Email goes
// out through the job queue and never fails the request.
func SendInvites(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	// Addresses are normalized before validation so "  X@Y.com  " passes
	// the email check. ReadJSON targets an untagged struct to keep the
	// validator off the raw input.
	var payload struct {
		Emails []string `json:"emails"`
	}
	if err := ctx.ReadJSON(&payload); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	input := SendInvitesInput{Emails: make([]string, 0, len(payload.Emails))}
	for _, email := range payload.Emails {
		input.Emails = append(input.Emails, strings.ToLower(strings.TrimSpace(email)))
	}
	if err := ctx.Application().Validate(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var game models.Game
	gameQuery := storage.DB.Limit(1).Find(&game, id)
	if gameQuery.Error != nil {
		utils.LogError("send invites lookup", gameQuery.Error)
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

	snapshot := GameSnapshot{
		Name:     game.Name,
		Date:     game.Date,
		Time:     game.Time,
		Location: game.Location,
		GameType: game.GameType,
	}

	invites := make([]InviteWithGame, 0, len(input.Emails))
	for _, email := range input.Emails {
		token := utils.GenerateOpaqueToken(inviteTokenBytes)
		expiresAt := time.Now().Add(inviteTTL)

		invite := models.Invite{
			GameID:    game.ID,
			HostID:    claims.ID,
			Email:     email,
			Token:     token,
			Status:    models.InviteStatusPending,
			ExpiresAt: &expiresAt,
		}
		createErr := storage.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_id"}, {Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "status", "updated_at"}),
		}).Create(&invite).Error
		if createErr != nil {
			utils.LogError("send invites upsert", createErr)
			utils.CreateInternalServerError(ctx)
			return
		}

		// re-read: the conflict path doesn't populate the row id
		readBack := storage.DB.Where("game_id = ? AND email = ?", game.ID, email).Limit(1).Find(&invite)
		if readBack.Error != nil {
			utils.LogError("send invites readback", readBack.Error)
			utils.CreateInternalServerError(ctx)
			return
		}

		to := email
		inviteGame := game
		services.Jobs.Enqueue("invite email", func() error {
			return services.Mail.SendInviteEmail(to, inviteGame, token)
		})

		invites = append(invites, InviteWithGame{Invite: invite, Game: snapshot})
	}

	ctx.JSON(invites)
}

func GetInviteByToken(ctx iris.Context) {
	token := ctx.Params().Get("token")

	var invite InviteDetail
	inviteQuery := storage.DB.Model(&models.Invite{}).
		Select("invites.*, games.name AS game_name, games.date, games.time, games.location, games.game_type, users.display_name AS host_name").
		Joins("JOIN games ON games.id = invites.game_id").
		Joins("LEFT JOIN users ON users.id = games.host_id").
		Where("invites.token = ?", token).
		Limit(1).Find(&invite)
	if inviteQuery.Error != nil {
		utils.LogError("get invite", inviteQuery.Error)
		utils.CreateInternalServerError(ctx)
		return
	}
	if inviteQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Invite not found", ctx)
		return
	}

	if invite.Expired() {
		utils.CreateError(iris.StatusBadRequest, "Invite expired", ctx)
		return
	}

	ctx.JSON(invite)
}

// RespondToInvite accepts or declines by token. Authentication is optional:
// a guest acceptance only records the invite status, while a valid bearer
// token additionally books a going RSVP for that identity.
func RespondToInvite(ctx iris.Context) {
	token := ctx.Params().Get("token")

	var input RespondInviteInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(models.InviteResponses, input.Response) {
		utils.CreateError(iris.StatusBadRequest, "Invalid response", ctx)
		return
	}

	var invite models.Invite
	inviteQuery := storage.DB.Where("token = ?", token).Limit(1).Find(&invite)
	if inviteQuery.Error != nil {
		utils.LogError("respond invite lookup", inviteQuery.Error)
		utils.CreateInternalServerError(ctx)
		return
	}
	if inviteQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Invite not found", ctx)
		return
	}

	if invite.Expired() {
		utils.CreateError(iris.StatusBadRequest, "Invite expired", ctx)
		return
	}

	if err := storage.DB.Model(&invite).Update("status", input.Response).Error; err != nil {
		utils.LogError("respond invite update", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	if input.Response == models.InviteStatusAccepted {
		if claims, err := utils.VerifyAccessToken(utils.BearerToken(ctx)); err == nil {
			if err := upsertRsvp(storage.DB, invite.GameID, claims.ID, models.RsvpStatusGoing, ""); err != nil {
				utils.LogError("invite rsvp", err)
				utils.CreateInternalServerError(ctx)
				return
			}
		}
	}

	ctx.JSON(iris.Map{"success": true, "status": input.Response})
}

func ListGameInvites(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Game not found", ctx)
		return
	}

	var game models.Game
	gameQuery := storage.DB.Limit(1).Find(&game, id)
	if gameQuery.Error != nil {
		utils.LogError("list invites lookup", gameQuery.Error)
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

	invites := make([]models.Invite, 0)
	if err := storage.DB.Where("game_id = ?", game.ID).Order("created_at DESC").Find(&invites).Error; err != nil {
		utils.LogError("list invites", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(invites)
}

type SendInvitesInput struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,required,email"`
}

type RespondInviteInput struct {
	Response string `json:"response" validate:"required"`
}
