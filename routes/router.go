package routes

import (
	"os"

	"pokerpulse-server/utils"
	"pokerpulse-server/ws"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// BuildRouter wires every API party onto the app. main and the tests share
// this so the routing table only exists in one place. The websocket registry
// must be initialized before calling it.
func BuildRouter(app *iris.Application) {
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	auth := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	app.Get("/health", Health)
	app.Get("/ws", iris.FromStd(ws.Handler(ws.Registry)))

	authParty := app.Party("/api/auth")
	{
		authParty.Post("/register", Register)
		authParty.Post("/login", Login)
		authParty.Get("/me", auth, CurrentUser)
		authParty.Post("/refresh", auth, RefreshToken)
	}

	games := app.Party("/api/games")
	{
		games.Get("/", ListGames)
		games.Get("/my", auth, MyGames)
		games.Get("/{id:uint}", GetGame)
		games.Post("/", auth, CreateGame)
		games.Put("/{id:uint}", auth, UpdateGame)
		games.Delete("/{id:uint}", auth, CancelGame)
		games.Get("/{id:uint}/rsvps", ListGameRsvps)
		games.Post("/{id:uint}/rsvp", auth, SubmitRsvp)
		games.Get("/{id:uint}/rsvp/me", auth, GetMyRsvp)
	}

	invites := app.Party("/api/invites")
	{
		invites.Post("/game/{id:uint}/invites", auth, SendInvites)
		invites.Get("/game/{id:uint}/invites", auth, ListGameInvites)
		invites.Get("/token/{token}", GetInviteByToken)
		invites.Post("/token/{token}/respond", RespondToInvite)
	}

	users := app.Party("/api/users")
	{
		users.Get("/me", auth, CurrentUser)
		users.Put("/me", auth, UpdateProfile)
		users.Get("/me/games", auth, AttendingGames)
	}
}

func Health(ctx iris.Context) {
	ctx.JSON(iris.Map{"status": "ok"})
}
