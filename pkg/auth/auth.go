package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
)

// JWTKey signs the HS256 tokens issued by the identity endpoints.
// Overridden from config at startup.
var JWTKey = []byte("booking-secret")

type Claims struct {
	Profile struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"profile"`
	jwt.RegisteredClaims
}

type contextKey int

const (
	ctxUserName contextKey = iota + 1
	ctxUserRole
)

func SetAuthContext(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserName, username)
	return context.WithValue(ctx, ctxUserRole, role)
}

func UserName(ctx context.Context) string {
	name, _ := ctx.Value(ctxUserName).(string)
	return name
}

func UserRole(ctx context.Context) string {
	role, _ := ctx.Value(ctxUserRole).(string)
	return role
}
