package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plinth-io/plinth/pkg/log"
)

// SessionClaims are the claims carried by the symmetric session cookie.
// The token carries identity only; authorization is decided per request
// against fresh store reads.
type SessionClaims struct {
	UserId string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var (
	issSession = "plinth"
)

// GenSessionToken signs an HS256 session token for userId.
func GenSessionToken(userId, role, secretKey string, expire time.Duration) (string, error) {
	claims := &SessionClaims{
		UserId: userId,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issSession,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		log.Errorw("jwt.NewWithClaims err", "error", err)
		return "", err
	}
	return token, nil
}

// ParseSessionToken verifies an HS256 session token and returns its claims.
// Any tampering, algorithm confusion or expiry yields an error.
func ParseSessionToken(token, secretKey string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, jwt.ErrTokenExpired
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
