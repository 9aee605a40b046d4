package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SetCost lowers the bcrypt cost so tests stay fast.
func (s *Service) SetCost(cost int) {
	s.cost = cost
}

// SignAccessToken issues an access token for username that expires at exp.
func SignAccessToken(secret []byte, username string, exp time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	return token.SignedString(secret)
}
