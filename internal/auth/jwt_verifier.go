package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

// HMACTokenSigner implements TokenSigner with HS256 tokens.
type HMACTokenSigner struct {
	secret []byte
	issuer string
	logger *slog.Logger
}

// NewHMACTokenSigner creates a signer for secret. The secret must be non-empty.
func NewHMACTokenSigner(secret, issuer string, logger *slog.Logger) (*HMACTokenSigner, error) {
	if secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	return &HMACTokenSigner{
		secret: []byte(secret),
		issuer: issuer,
		logger: logger,
	}, nil
}

// Sign issues a token without an exp claim; expiry lives on the session row
// so it can slide on renewal.
func (s *HMACTokenSigner) Sign(userID int64, sessionID string, issuedAt time.Time) (string, error) {
	claims := &models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		SessionID: sessionID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Verify validates a token and extracts its claims
func (s *HMACTokenSigner) Verify(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{},
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		// algorithm confusion guard
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		s.logger.Debug("session token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.SessionID == "" || claims.Subject == "" {
		s.logger.Debug("session token missing sid or sub")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}
