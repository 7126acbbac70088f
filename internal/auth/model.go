package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type tokenKeyType struct{}

var (
	tokenKey tokenKeyType
)

type User struct {
	Username     string
	Organization string
	EmailDomain  string
	Token        *jwt.Token
}

// IsAdmin reports whether the user belongs to the platform operator org.
func (u User) IsAdmin(adminOrg string) bool {
	return adminOrg != "" && u.Organization == adminOrg
}

func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(tokenKey)
	if val == nil {
		return User{}, false
	}
	return val.(User), true
}

func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		zap.S().Named("auth").Panic("failed to find user in context")
	}
	return user
}

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, tokenKey, u)
}
