package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docvault/internal/auth"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

// SessionConfig controls session lifetime
type SessionConfig struct {
	TTL         time.Duration // lifetime on creation and on renewal
	RenewWindow time.Duration // renew once less than this remains
}

type sessionAuthenticator struct {
	sessionRepo repositories.SessionRepository
	userRepo    repositories.UserRepository
	signer      auth.TokenSigner
	cfg         SessionConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewSessionAuthenticator creates a session authenticator
func NewSessionAuthenticator(
	sessionRepo repositories.SessionRepository,
	userRepo repositories.UserRepository,
	signer auth.TokenSigner,
	cfg SessionConfig,
	logger *slog.Logger,
) services.SessionAuthenticator {
	return &sessionAuthenticator{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		signer:      signer,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// HashSessionID returns the stored form of a raw session identifier
func HashSessionID(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}

func (a *sessionAuthenticator) ValidateSessionToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("missing session token: %w", domain.ErrUnauthorized)
	}

	claims, err := a.signer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", domain.ErrUnauthorized)
	}

	id := HashSessionID(claims.SessionID)
	session, err := a.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session not found: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := a.now()
	if !now.Before(session.ExpiresAt) {
		if err := a.sessionRepo.Delete(ctx, id); err != nil {
			a.logger.Warn("failed to delete expired session", "user_id", session.UserID, "error", err)
		}
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}

	if session.ExpiresAt.Sub(now) < a.cfg.RenewWindow {
		expiresAt := now.Add(a.cfg.TTL)
		if err := a.sessionRepo.UpdateExpiry(ctx, id, expiresAt); err != nil {
			// the session is still valid, renewal can happen on a later request
			a.logger.Warn("failed to renew session", "user_id", session.UserID, "error", err)
		} else {
			a.logger.Debug("session renewed", "user_id", session.UserID, "expires_at", expiresAt)
		}
	}

	user, err := a.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session user missing: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}

func (a *sessionAuthenticator) IsAdmin(ctx context.Context, token string) bool {
	user, err := a.ValidateSessionToken(ctx, token)
	return err == nil && user.IsAdmin()
}

func (a *sessionAuthenticator) CreateSession(ctx context.Context, userID int64) (string, *models.Session, error) {
	rawID := uuid.NewString()
	now := a.now()

	session := &models.Session{
		ID:        HashSessionID(rawID),
		UserID:    userID,
		ExpiresAt: now.Add(a.cfg.TTL),
	}
	if err := a.sessionRepo.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	token, err := a.signer.Sign(userID, rawID, now)
	if err != nil {
		return "", nil, err
	}

	a.logger.Info("session created", "user_id", userID, "expires_at", session.ExpiresAt)
	return token, session, nil
}

func (a *sessionAuthenticator) InvalidateSession(ctx context.Context, token string) error {
	claims, err := a.signer.Verify(token)
	if err != nil {
		return fmt.Errorf("invalid session token: %w", domain.ErrUnauthorized)
	}
	if err := a.sessionRepo.Delete(ctx, HashSessionID(claims.SessionID)); err != nil {
		return err
	}
	a.logger.Info("session invalidated", "user_id", claims.Subject)
	return nil
}

func (a *sessionAuthenticator) InvalidateAllSessions(ctx context.Context, userID int64) error {
	if err := a.sessionRepo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	a.logger.Info("all sessions invalidated", "user_id", userID)
	return nil
}
