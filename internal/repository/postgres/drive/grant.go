package drive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/drive"
	driveRepo "docvault/internal/domain/repositories/drive"
	"docvault/internal/repository/postgres"
)

// PostgresGrantRepository implements the GrantRepository interface over the
// shared_folders and shared_files tables
type PostgresGrantRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(config *postgres.RepositoryConfig) driveRepo.GrantRepository {
	return &PostgresGrantRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GrantFolder inserts a folder grant. An explicit grant upgrades an existing
// propagated one; a propagated grant never overwrites anything.
func (r *PostgresGrantRepository) GrantFolder(ctx context.Context, userID, folderID int64, root bool) error {
	query := grantQuery(r.tables.SharedFolders, "folder_id", root)
	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, folderID, root); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("user %d or folder %d: %w", userID, folderID, domain.ErrNotFound)
		}
		return fmt.Errorf("grant folder: %w", err)
	}
	return nil
}

// GrantFile inserts a file grant with the same upsert rules as GrantFolder
func (r *PostgresGrantRepository) GrantFile(ctx context.Context, userID, fileID int64, root bool) error {
	query := grantQuery(r.tables.SharedFiles, "file_id", root)
	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, fileID, root); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("user %d or file %d: %w", userID, fileID, domain.ErrNotFound)
		}
		return fmt.Errorf("grant file: %w", err)
	}
	return nil
}

func grantQuery(table, resourceColumn string, root bool) string {
	conflict := "DO NOTHING"
	if root {
		conflict = "DO UPDATE SET root = true"
	}
	return fmt.Sprintf(`
		INSERT INTO %s (user_id, %s, root)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, %s) %s
	`, table, resourceColumn, resourceColumn, conflict)
}

// GetFolderGrant retrieves the grant a user holds on a folder
func (r *PostgresGrantRepository) GetFolderGrant(ctx context.Context, userID, folderID int64) (*models.FolderGrant, error) {
	query := fmt.Sprintf(`
		SELECT user_id, folder_id, root FROM %s
		WHERE user_id = $1 AND folder_id = $2
	`, r.tables.SharedFolders)

	var grant models.FolderGrant
	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID, folderID).Scan(
		&grant.UserID,
		&grant.FolderID,
		&grant.Root,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("grant on folder %d for user %d: %w", folderID, userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder grant: %w", err)
	}
	return &grant, nil
}

// GetFileGrant retrieves the grant a user holds on a file
func (r *PostgresGrantRepository) GetFileGrant(ctx context.Context, userID, fileID int64) (*models.FileGrant, error) {
	query := fmt.Sprintf(`
		SELECT user_id, file_id, root FROM %s
		WHERE user_id = $1 AND file_id = $2
	`, r.tables.SharedFiles)

	var grant models.FileGrant
	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID, fileID).Scan(
		&grant.UserID,
		&grant.FileID,
		&grant.Root,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("grant on file %d for user %d: %w", fileID, userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file grant: %w", err)
	}
	return &grant, nil
}

func (r *PostgresGrantRepository) SetFolderGrantRoot(ctx context.Context, userID, folderID int64, root bool) error {
	query := fmt.Sprintf(`UPDATE %s SET root = $1 WHERE user_id = $2 AND folder_id = $3`, r.tables.SharedFolders)

	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, root, userID, folderID)
	if err != nil {
		return fmt.Errorf("update folder grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("grant on folder %d for user %d: %w", folderID, userID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresGrantRepository) SetFileGrantRoot(ctx context.Context, userID, fileID int64, root bool) error {
	query := fmt.Sprintf(`UPDATE %s SET root = $1 WHERE user_id = $2 AND file_id = $3`, r.tables.SharedFiles)

	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, root, userID, fileID)
	if err != nil {
		return fmt.Errorf("update file grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("grant on file %d for user %d: %w", fileID, userID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresGrantRepository) RevokeFolder(ctx context.Context, userID, folderID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND folder_id = $2`, r.tables.SharedFolders)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, folderID); err != nil {
		return fmt.Errorf("revoke folder grant: %w", err)
	}
	return nil
}

func (r *PostgresGrantRepository) RevokeFile(ctx context.Context, userID, fileID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND file_id = $2`, r.tables.SharedFiles)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, fileID); err != nil {
		return fmt.Errorf("revoke file grant: %w", err)
	}
	return nil
}

// ListFolderGrants lists every grant held on a folder
func (r *PostgresGrantRepository) ListFolderGrants(ctx context.Context, folderID int64) ([]models.FolderGrant, error) {
	query := fmt.Sprintf(`
		SELECT user_id, folder_id, root FROM %s
		WHERE folder_id = $1
		ORDER BY user_id ASC
	`, r.tables.SharedFolders)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder grants: %w", err)
	}
	defer rows.Close()

	grants := []models.FolderGrant{}
	for rows.Next() {
		var grant models.FolderGrant
		if err := rows.Scan(&grant.UserID, &grant.FolderID, &grant.Root); err != nil {
			return nil, fmt.Errorf("scan folder grant: %w", err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder grants: %w", err)
	}
	return grants, nil
}

func (r *PostgresGrantRepository) DeleteFolderGrants(ctx context.Context, folderID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE folder_id = $1`, r.tables.SharedFolders)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, folderID); err != nil {
		return fmt.Errorf("delete grants on folder %d: %w", folderID, err)
	}
	return nil
}

func (r *PostgresGrantRepository) DeleteFileGrants(ctx context.Context, fileID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, r.tables.SharedFiles)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, fileID); err != nil {
		return fmt.Errorf("delete grants on file %d: %w", fileID, err)
	}
	return nil
}

// ListSharedFolders returns folders carrying a root grant for the user
func (r *PostgresGrantRepository) ListSharedFolders(ctx context.Context, userID int64) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT f.id, f.name, f.user_id, f.parent_folder_id, f.project_id, f.created_at, f.updated_at
		FROM %s f
		JOIN %s s ON s.folder_id = f.id
		WHERE s.user_id = $1 AND s.root
		ORDER BY f.name ASC, f.id ASC
	`, r.tables.Folders, r.tables.SharedFolders)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared folders: %w", err)
	}
	return collectFolders(rows)
}

// ListSharedFiles returns files carrying a root grant for the user
func (r *PostgresGrantRepository) ListSharedFiles(ctx context.Context, userID int64) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT f.id, f.name, f.route, f.content_type, f.size, f.user_id, f.folder_id, f.created_at, f.updated_at
		FROM %s f
		JOIN %s s ON s.file_id = f.id
		WHERE s.user_id = $1 AND s.root
		ORDER BY f.name ASC, f.id ASC
	`, r.tables.Files, r.tables.SharedFiles)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared files: %w", err)
	}
	return collectFiles(rows)
}
