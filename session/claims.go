package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-payment-console/internal/utils"
)

// tokenClaims are read from an access token without verifying its signature.
type tokenClaims struct {
	ExpiresAt *int64
	Subject   string
	Email     string
	UserID    int64
	Roles     []string
}

func parseClaims(raw string) (tokenClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return tokenClaims{}, false
	}

	var tc tokenClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = utils.Ptr(exp.UnixMilli())
	}
	tc.Subject, _ = claims.GetSubject()
	tc.Email, _ = claims["email"].(string)
	tc.UserID, _ = utils.ClaimInt64(claims["userId"])

	for _, name := range []string{"roles", "authorities", "role"} {
		if roles := utils.ClaimStrings(claims[name]); len(roles) > 0 {
			tc.Roles = roles
			break
		}
	}
	return tc, true
}
