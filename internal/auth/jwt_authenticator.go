package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWTAuthenticator validates bearer tokens against the identity provider's
// JWKS endpoint and maps claims onto the platform user.
type JWTAuthenticator struct {
	keyFn func(t *jwt.Token) (any, error)
}

func NewJWTAuthenticatorWithKeyFn(keyFn func(t *jwt.Token) (any, error)) (*JWTAuthenticator, error) {
	return &JWTAuthenticator{keyFn: keyFn}, nil
}

func NewJWTAuthenticator(jwkCertUrl string) (*JWTAuthenticator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwkCertUrl})
	if err != nil {
		return nil, fmt.Errorf("failed to get sso public keys: %w", err)
	}

	return &JWTAuthenticator{keyFn: k.Keyfunc}, nil
}

func (j *JWTAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}), jwt.WithIssuedAt(), jwt.WithExpirationRequired())
	t, err := parser.Parse(token, j.keyFn)
	if err != nil {
		zap.S().Named("auth").Errorw("failed to parse or the token is invalid", "error", err)
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}

	if !t.Valid {
		return User{}, fmt.Errorf("failed to parse or validate token")
	}

	return j.parseToken(t)
}

func (j *JWTAuthenticator) parseToken(userToken *jwt.Token) (User, error) {
	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, errors.New("failed to parse jwt token claims")
	}

	username, ok := claims["preferred_username"].(string)
	if !ok || username == "" {
		return User{}, errors.New("token missing preferred_username claim")
	}

	// Customers authenticate with an org claim. Users without one are scoped
	// to their own username.
	orgID, _ := claims["org_id"].(string)
	if orgID == "" {
		orgID = username
	}

	user := User{
		Username:     username,
		Organization: orgID,
		Token:        userToken,
	}

	if email, ok := claims["email"].(string); ok {
		if idx := strings.LastIndex(email, "@"); idx >= 0 {
			user.EmailDomain = email[idx+1:]
		}
	}

	return user, nil
}

func (j *JWTAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := r.Header.Get("Authorization")
		if accessToken == "" || len(accessToken) < len("Bearer ") {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		accessToken = accessToken[len("Bearer "):]
		user, err := j.Authenticate(accessToken)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		ctx := NewUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
