package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trivia-battle-service/internal/domain"
)

// Claims carries the player identity. The player id is the token subject.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 player tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue mints a token for player valid for ttl.
func (a *Authenticator) Issue(player domain.Player, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: player.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   player.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a token and returns the player it names.
func (a *Authenticator) Parse(raw string) (domain.Player, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Player{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return domain.Player{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return domain.Player{ID: claims.Subject, Name: name}, nil
}

// FromRequest reads a bearer token from the Authorization header, falling back to the token query parameter.
func (a *Authenticator) FromRequest(r *http.Request) (domain.Player, error) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return domain.Player{}, domain.ErrUnauthorized
	}
	return a.Parse(raw)
}
