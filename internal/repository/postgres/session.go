package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, r.tables.Sessions)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query, session.ID, session.UserID, session.ExpiresAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("user %d: %w", session.UserID, domain.ErrNotFound)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, expires_at
		FROM %s
		WHERE id = $1
	`, r.tables.Sessions)

	var session models.Session
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (r *PostgresSessionRepository) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET expires_at = $1 WHERE id = $2`, r.tables.Sessions)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, expiresAt, id)
	if err != nil {
		return fmt.Errorf("update session expiry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Sessions)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) DeleteByUser(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.Sessions)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete sessions for user %d: %w", userID, err)
	}
	return nil
}
