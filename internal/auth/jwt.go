package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingToken = errors.New("missing_token")

// Claims is the subset of the platform's access-token payload the console reads.
// The upstream has issued tokens with either "user_id" or "id" for the user.
type Claims struct {
	UserID   string `json:"user_id,omitempty"`
	ID       string `json:"id,omitempty"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the first populated user identifier of the token.
func (c *Claims) Identity() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.ID != "":
		return c.ID
	default:
		return c.RegisteredClaims.Subject
	}
}

// Expiry returns the token expiry, or the zero time when the token carries none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func NewAccessToken(secret string, ttl time.Duration, claims Claims) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.Identity(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// PeekToken decodes the claims without verifying the signature. The console is
// a client of the issuer and usually does not hold its key; the claims are only
// used for display and routing, never for authorization decisions upstream.
func PeekToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Inspect verifies the token when a secret is configured and peeks otherwise.
func Inspect(secret, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if secret != "" {
		return ParseToken(secret, tokenString)
	}
	return PeekToken(tokenString)
}
