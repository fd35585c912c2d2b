package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Roles recognized by the API role gates
const (
	RoleCitizen    = "CITIZEN"
	RoleAdmin      = "ADMIN"
	RoleGovOfficer = "GOV_OFFICER"
)

// ErrInvalidToken means the token failed signature or claims validation
var ErrInvalidToken = errors.New("invalid token")

// ValidRole reports whether r is a known role label
func ValidRole(r string) bool {
	switch r {
	case RoleCitizen, RoleAdmin, RoleGovOfficer:
		return true
	}
	return false
}

// Claims carries the verified principal: a user id and a role. The service
// trusts these once the signature checks out; issuing them is the identity
// provider's job.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CreateAccessToken mints an HS256 token for the given principal
func CreateAccessToken(secret string, userID uint, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseValidate verifies the token signature and expiry and returns the claims
func ParseValidate(secret, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}
