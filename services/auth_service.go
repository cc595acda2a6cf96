package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// adminTokenTTL bounds how long an issued admin token stays valid.
const adminTokenTTL = 12 * time.Hour

// AdminAuthService guards the operator endpoints. There is a single admin
// identity, configured as a bcrypt hash; a successful login yields a signed
// HS256 token.
type AdminAuthService struct {
	passwordHash []byte
	jwtSecret    []byte
}

func NewAdminAuthService(passwordHash, jwtSecret string) *AdminAuthService {
	return &AdminAuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
	}
}

// Login verifies the admin password and returns a signed token.
func (s *AdminAuthService) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(adminTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks a bearer token and returns its claims.
func (s *AdminAuthService) VerifyToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrAuthenticationFailed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrAuthenticationFailed
	}
	return claims, nil
}
