package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims represents the session token claims
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs an HS256 token bound to the account identity
func GenerateSessionToken(userID, email, userType, secret string, validity time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID,
		Email:    email,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "ekalavya-backend",
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken parses and validates a session token
func ValidateSessionToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}

// Signer issues session tokens with a fixed secret and validity window
type Signer struct {
	secret   string
	validity time.Duration
}

// NewSigner creates a new session signer
func NewSigner(secret string, validity time.Duration) *Signer {
	return &Signer{secret: secret, validity: validity}
}

// Issue signs a bearer token bound to {id, email, user_type}
func (s *Signer) Issue(userID, email, userType string) (string, error) {
	return GenerateSessionToken(userID, email, userType, s.secret, s.validity)
}

// Validate checks a bearer token and returns its claims
func (s *Signer) Validate(token string) (*Claims, error) {
	return ValidateSessionToken(token, s.secret)
}
