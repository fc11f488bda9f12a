package utils

import (
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// CurrentUser returns the verified claims set by the access-token verifier
// middleware. Only call it on routes behind that middleware.
func CurrentUser(ctx iris.Context) *AccessToken {
	return jwt.Get(ctx).(*AccessToken)
}

// BearerToken pulls a raw bearer token from the Authorization header for
// routes where authentication is optional and no verifier middleware runs.
func BearerToken(ctx iris.Context) string {
	header := ctx.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
