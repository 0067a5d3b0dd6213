package types

import "github.com/golang-jwt/jwt/v4"

// Claims carried by access tokens. Subject holds the user id.
type Claims struct {
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

// VerificationClaims are issued in the registration email.
type VerificationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}
