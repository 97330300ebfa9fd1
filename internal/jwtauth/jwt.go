// Package jwtauth is the identity-assurance collaborator. It validates bearer
// tokens issued by the platform and extracts the principal they attest. The
// governance core never authenticates; by the time a principal leaves this
// package the platform has vouched for it.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

// Claims carries the principal attested by the platform.
type Claims struct {
	Principal string `json:"principal"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey string, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken mints a token for a principal. Used by dev tooling and tests;
// production tokens come from the platform's identity service.
func (s *Service) GenerateToken(principal domain.Principal, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Principal: principal.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidatePrincipal parses and validates a token and returns the principal it
// attests.
func (s *Service) ValidatePrincipal(tokenString string) (domain.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	principal := domain.Principal(claims.Principal)
	if principal.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token carries no principal")
	}
	return principal, nil
}
