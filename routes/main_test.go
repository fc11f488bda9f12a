package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"pokerpulse-server/models"
	"pokerpulse-server/services"
	"pokerpulse-server/storage"
	"pokerpulse-server/ws"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// setupTestApp builds the full router against a fresh in-memory database.
// The pool is capped at one connection so transactions serialize the same
// way the production row lock does.
func setupTestApp(t *testing.T) *iris.Application {
	t.Helper()

	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")

	dsn := fmt.Sprintf("file:routes_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Game{}, &models.Rsvp{}, &models.Invite{}, &models.WaitlistEntry{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	storage.DB = db

	services.InitializeMailer() // SMTP_HOST unset, so sends are no-ops
	services.InitializeDispatcher()
	ws.InitializeRegistry()

	app := iris.New()
	app.Validator = validator.New()
	BuildRouter(app)
	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *iris.Application, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	if payload != nil {
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func decodeMap(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", resp.Body.String(), err)
	}
	return out
}

func decodeList(t *testing.T, resp *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", resp.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, app *iris.Application, email string) (token string, userID uint) {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":       email,
		"password":    "table-stakes-99",
		"displayName": strings.SplitN(email, "@", 2)[0],
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", email, resp.Code, resp.Body.String())
	}

	body := decodeMap(t, resp)
	token, _ = body["token"].(string)
	user, _ := body["user"].(map[string]interface{})
	if token == "" || user == nil {
		t.Fatalf("register %s: missing token or user in %v", email, body)
	}
	return token, uint(user["ID"].(float64))
}

func createTestGame(t *testing.T, app *iris.Application, token string, maxPlayers int) uint {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/games", token, map[string]interface{}{
		"name":       "Friday Night Holdem",
		"date":       "2030-01-10",
		"time":       "19:00",
		"location":   "Dave's garage",
		"maxPlayers": maxPlayers,
		"gameType":   "texas-holdem",
		"buyIn":      "$20",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create game: status %d body %s", resp.Code, resp.Body.String())
	}
	return uint(decodeMap(t, resp)["id"].(float64))
}

func submitRsvp(t *testing.T, app *iris.Application, token string, gameID uint, status string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/games/%d/rsvp", gameID), token, map[string]interface{}{
		"status": status,
	})
}

func gameGoingCount(t *testing.T, app *iris.Application, gameID uint) int64 {
	t.Helper()
	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/games/%d", gameID), "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get game %d: status %d", gameID, resp.Code)
	}
	return int64(decodeMap(t, resp)["goingCount"].(float64))
}
