package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/kataras/iris/v12/middleware/jwt"
)

// AccessToken is the signed session claim carried by every authenticated
// request: identity id plus email.
type AccessToken struct {
	ID    uint   `json:"ID"`
	Email string `json:"email"`
}

const accessTokenMaxAge = 24 * time.Hour

// CreateToken signs a session token for the given identity. There is no
// server-side session state; refresh reissues a token with the same claims.
func CreateToken(id uint, email string) (string, error) {
	signer := jwt.NewSigner(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")), accessTokenMaxAge)

	token, err := signer.Sign(AccessToken{ID: id, Email: email})
	if err != nil {
		return "", err
	}

	return string(token), nil
}

// VerifyAccessToken validates a raw bearer token outside the middleware path
// (websocket auth messages, optional-auth invite responses).
func VerifyAccessToken(token string) (*AccessToken, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	verifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	verifiedToken, err := verifier.VerifyToken([]byte(token))
	if err != nil {
		return nil, err
	}

	var claims AccessToken
	if err := verifiedToken.Claims(&claims); err != nil {
		return nil, err
	}

	return &claims, nil
}

// GenerateOpaqueToken returns a hex string of n random bytes, used for
// invite links. 24 bytes gives 192 bits of entropy.
func GenerateOpaqueToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
