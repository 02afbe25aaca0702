package token

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNotAToken = errors.New("credential is not a JWT")

// Claims represents the claims the club backend puts into its access tokens.
// The token is opaque to us (we never validate the signature; the backend
// does), but the role and bound club can be read out of it when the auth
// response body omits them.
type Claims struct {
	Role        string `json:"role"`
	ClubShortID int64  `json:"club_short_id"`
	TgUserID    int64  `json:"user_id"`
	jwt.RegisteredClaims
}

// Inspect parses an access token without verifying its signature and returns
// the embedded claims.
func Inspect(credential string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(credential, claims)
	if err != nil {
		return nil, ErrNotAToken
	}
	if claims.ClubShortID == 0 && claims.Subject != "" {
		// Older backend revisions carried the bound club in the subject.
		if id, convErr := strconv.ParseInt(claims.Subject, 10, 64); convErr == nil {
			claims.ClubShortID = id
		}
	}
	return claims, nil
}
