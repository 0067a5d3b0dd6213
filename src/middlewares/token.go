package middlewares

import (
	"errors"
	"loketkita/src/models"
	"loketkita/src/types"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	AccessTokenTTL       = time.Hour
	VerificationTokenTTL = 15 * time.Minute

	purposeVerifyEmail = "verify-email"
	audienceAccess     = "access"
)

var jwtKey []byte

var ErrInvalidToken = errors.New("invalid or expired token")

func SetJWTKey(secret string) {
	jwtKey = []byte(secret)
}

func IssueAccessToken(user *models.User, now time.Time) (string, error) {
	claims := &types.Claims{
		Email:    user.Email,
		Role:     user.Role,
		Verified: user.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{audienceAccess},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtKey)
}

func IssueVerificationToken(user *models.User, now time.Time) (string, error) {
	claims := &types.VerificationClaims{
		Email:   user.Email,
		Purpose: purposeVerifyEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(VerificationTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtKey)
}

// ParseVerificationToken returns the user id carried by a verification token.
func ParseVerificationToken(token string) (uint, error) {
	claims := &types.VerificationClaims{}
	if _, err := parse(token, claims); err != nil {
		return 0, err
	}
	if claims.Purpose != purposeVerifyEmail {
		return 0, ErrInvalidToken
	}
	return subjectID(claims.Subject)
}

func parse(token string, claims jwt.Claims) (*jwt.Token, error) {
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtKey, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return tkn, nil
}

func parseAccessToken(token string) (uint, error) {
	claims := &types.Claims{}
	if _, err := parse(token, claims); err != nil {
		return 0, err
	}
	if !claims.VerifyAudience(audienceAccess, true) {
		return 0, ErrInvalidToken
	}
	return subjectID(claims.Subject)
}

func subjectID(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
