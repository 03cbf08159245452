package drive

import (
	"context"
	"time"

	"docvault/internal/domain/models/drive"
)

// FileRepository defines data access operations for file metadata
type FileRepository interface {
	Create(ctx context.Context, file *drive.File) error
	GetByID(ctx context.Context, id int64) (*drive.File, error)

	// ListByFolder lists the files directly inside a folder
	ListByFolder(ctx context.Context, folderID int64) ([]drive.File, error)

	Rename(ctx context.Context, id int64, name string, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}
