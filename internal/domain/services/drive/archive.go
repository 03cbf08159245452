package drive

import (
	"context"
	"os"

	"docvault/internal/domain/models"
	"docvault/internal/domain/models/drive"
)

// ArchiveService exports folder subtrees as zip archives.
type ArchiveService interface {
	// ExportFolder writes the folder and all its descendants to a temporary
	// zip. On failure nothing is left on disk.
	ExportFolder(ctx context.Context, user *models.User, folderID int64) (*drive.Archive, error)

	// Open opens a previously exported archive for reading
	Open(archive *drive.Archive) (*os.File, error)

	// Release deletes the archive. Releasing twice is not an error.
	Release(archive *drive.Archive) error
}
