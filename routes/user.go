package routes

import (
	"strings"

	"pokerpulse-server/models"
	"pokerpulse-server/services"
	"pokerpulse-server/storage"
	"pokerpulse-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.LogError("register lookup", userExistsErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateError(iris.StatusConflict, "Email already registered", ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.LogError("register hash", hashErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	email := strings.ToLower(userInput.Email)
	displayName := userInput.DisplayName
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	newUser = models.User{
		Email:       email,
		Password:    hashedPassword,
		DisplayName: displayName,
	}

	if err := storage.DB.Create(&newUser).Error; err != nil {
		utils.LogError("register create", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	services.Jobs.Enqueue("welcome email", func() error {
		return services.Mail.SendWelcomeEmail(newUser.Email, newUser.DisplayName)
	})

	returnUser(newUser, ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid email or password"
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.LogError("login lookup", userExistsErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, errorMsg, ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func CurrentUser(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	var user models.User
	userQuery := storage.DB.Limit(1).Find(&user, claims.ID)
	if userQuery.Error != nil {
		utils.LogError("current user", userQuery.Error)
		utils.CreateInternalServerError(ctx)
		return
	}
	if userQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "User not found", ctx)
		return
	}

	ctx.JSON(user)
}

// RefreshToken reissues a session token with the same claims. No session
// state exists server side, so the old token simply ages out.
func RefreshToken(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	token, err := utils.CreateToken(claims.ID, claims.Email)
	if err != nil {
		utils.LogError("refresh token", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"token": token})
}

func UpdateProfile(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	var input UpdateProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	userQuery := storage.DB.Limit(1).Find(&user, claims.ID)
	if userQuery.Error != nil {
		utils.LogError("profile lookup", userQuery.Error)
		utils.CreateInternalServerError(ctx)
		return
	}
	if userQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "User not found", ctx)
		return
	}

	// nil leaves the stored value untouched
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	if err := storage.DB.Save(&user).Error; err != nil {
		utils.LogError("profile update", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(user)
}

// AttendingGames lists the active games the caller holds any RSVP for.
func AttendingGames(ctx iris.Context) {
	claims := utils.CurrentUser(ctx)

	var games []AttendingGame
	err := storage.DB.Model(&models.Rsvp{}).
		Select("games.*, users.display_name AS host_name, users.avatar_url AS host_avatar, rsvps.status AS my_rsvp_status, "+goingCountSelect).
		Joins("JOIN games ON games.id = rsvps.game_id").
		Joins("LEFT JOIN users ON users.id = games.host_id").
		Where("rsvps.user_id = ? AND games.status = ?", claims.ID, models.GameStatusActive).
		Order("games.date ASC, games.time ASC").
		Find(&games).Error
	if err != nil {
		utils.LogError("attending games", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(games)
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	return userExistsQuery.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func returnUser(user models.User, ctx iris.Context) {
	token, tokenErr := utils.CreateToken(user.ID, user.Email)
	if tokenErr != nil {
		utils.LogError("sign token", tokenErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"token": token,
		"user":  user,
	})
}

type RegisterUserInput struct {
	Email       string `json:"email" validate:"required,max=256,email"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	AvatarURL   *string `json:"avatarURL"`
}
