package drive

import (
	"context"
	"time"

	"docvault/internal/domain/models/drive"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *drive.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id int64) (*drive.Folder, error)

	// GetRoot retrieves the parent-less "root" folder owned by a user
	GetRoot(ctx context.Context, userID int64) (*drive.Folder, error)

	// ListChildren lists immediate child folders
	ListChildren(ctx context.Context, folderID int64) ([]drive.Folder, error)

	// ListAll lists every folder in the system
	ListAll(ctx context.Context) ([]drive.Folder, error)

	// Rename changes a folder's name
	Rename(ctx context.Context, id int64, name string, updatedAt time.Time) error

	// Delete deletes a single folder row. The folder must have no children.
	Delete(ctx context.Context, id int64) error
}
