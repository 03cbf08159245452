package drive

import (
	"context"

	"docvault/internal/domain/models/drive"
)

// GrantRepository defines data access operations for sharing grants.
//
// Granting with root=true upserts the row and marks it as an explicit share.
// Granting with root=false inserts only when no row exists, so an existing
// explicit share is never downgraded by propagation.
type GrantRepository interface {
	GrantFolder(ctx context.Context, userID, folderID int64, root bool) error
	GrantFile(ctx context.Context, userID, fileID int64, root bool) error

	// GetFolderGrant returns ErrNotFound when the user holds no grant on the folder
	GetFolderGrant(ctx context.Context, userID, folderID int64) (*drive.FolderGrant, error)
	GetFileGrant(ctx context.Context, userID, fileID int64) (*drive.FileGrant, error)

	// SetFolderGrantRoot flips the root flag of an existing grant
	SetFolderGrantRoot(ctx context.Context, userID, folderID int64, root bool) error
	SetFileGrantRoot(ctx context.Context, userID, fileID int64, root bool) error

	// RevokeFolder and RevokeFile delete one grant; a missing grant is not an error
	RevokeFolder(ctx context.Context, userID, folderID int64) error
	RevokeFile(ctx context.Context, userID, fileID int64) error

	// ListFolderGrants lists every grant held on a folder
	ListFolderGrants(ctx context.Context, folderID int64) ([]drive.FolderGrant, error)

	// DeleteFolderGrants and DeleteFileGrants remove all grants on a resource
	DeleteFolderGrants(ctx context.Context, folderID int64) error
	DeleteFileGrants(ctx context.Context, fileID int64) error

	// ListSharedFolders returns the folders explicitly shared with a user (root grants only)
	ListSharedFolders(ctx context.Context, userID int64) ([]drive.Folder, error)

	// ListSharedFiles returns the files explicitly shared with a user (root grants only)
	ListSharedFiles(ctx context.Context, userID int64) ([]drive.File, error)
}
