package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "pickles"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AdminClaims identify the catalog editor a token was issued to.
type AdminClaims struct {
	AdminID  uint64 `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs an HS256 token for the admin, expiring after ttl.
func GenerateAdminToken(secret string, adminID uint64, username string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("security: empty jwt secret")
	}
	issuedAt := time.Now().UTC()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		AdminID:  adminID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(adminID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}).SignedString([]byte(secret))
}

// ParseAdminToken verifies signature, issuer and expiry. Any failure other
// than expiry is reported as ErrInvalidToken.
func ParseAdminToken(secret string, raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil, claims.AdminID == 0:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
