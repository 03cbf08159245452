package services

import (
	"context"

	"docvault/internal/domain/models"
)

// ResourceAuthorizer decides whether a user may touch a folder or file.
//
// Read access: Admin, the owner, or any grant row (explicit or propagated).
// Manage access (create inside, rename, delete, share, unshare): Admin or owner.
//
// Every method returns ErrNotFound for a missing target, ErrForbidden when
// access is insufficient and ErrUnauthorized for a nil user. Decisions are
// made from storage on every call.
type ResourceAuthorizer interface {
	CanAccessFolder(ctx context.Context, user *models.User, folderID int64) error
	CanManageFolder(ctx context.Context, user *models.User, folderID int64) error
	CanAccessFile(ctx context.Context, user *models.User, fileID int64) error
	CanManageFile(ctx context.Context, user *models.User, fileID int64) error
}

// SessionAuthenticator resolves session tokens to users.
type SessionAuthenticator interface {
	// ValidateSessionToken returns the session's user or ErrUnauthorized.
	// Expired sessions are deleted; sessions close to expiry are extended.
	ValidateSessionToken(ctx context.Context, token string) (*models.User, error)

	// IsAdmin reports whether the token belongs to a valid Admin session
	IsAdmin(ctx context.Context, token string) bool

	// CreateSession starts a session for a user and returns its signed token
	CreateSession(ctx context.Context, userID int64) (string, *models.Session, error)

	// InvalidateSession ends the session carried by token
	InvalidateSession(ctx context.Context, token string) error

	// InvalidateAllSessions ends every session of a user
	InvalidateAllSessions(ctx context.Context, userID int64) error
}
