package repositories

import (
	"context"
	"time"

	"docvault/internal/domain/models"
)

// UserRepository defines data access operations for users
type UserRepository interface {
	// Create inserts a user and fills in its ID and timestamps
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionRepository defines data access operations for login sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes a session; deleting a missing session is not an error
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every session belonging to a user
	DeleteByUser(ctx context.Context, userID int64) error
}
