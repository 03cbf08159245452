package auth

import (
	"time"

	"docvault/internal/domain/models"
)

// TokenSigner issues and verifies signed session tokens.
// A token only identifies a session; whether the session is still alive is
// decided by the session store, not by the token.
type TokenSigner interface {
	// Sign returns a token binding userID to the raw session identifier
	Sign(userID int64, sessionID string, issuedAt time.Time) (string, error)

	// Verify checks the signature and returns the parsed claims.
	// Returns domain.ErrUnauthorized for any malformed or forged token.
	Verify(tokenString string) (*models.SessionClaims, error)
}
