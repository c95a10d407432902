package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"taskdash/internal/service"
)

// UserFromToken builds the session identity from an access token.
// The token is not verified; only the server can do that. The user id is
// the "sub" claim, falling back to "user_id".
func UserFromToken(token, email string) (service.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return service.User{}, fmt.Errorf("malformed access token: %w", err)
	}

	id := claimString(claims, "sub")
	if id == "" {
		id = claimString(claims, "user_id")
	}
	if id == "" {
		return service.User{}, fmt.Errorf("access token has no subject")
	}

	if email == "" {
		email = claimString(claims, "email")
	}

	return service.User{
		ID:    id,
		Email: email,
		Name:  NameFromEmail(email),
	}, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
