package drive

import (
	"context"

	"docvault/internal/domain/models"
	"docvault/internal/domain/models/drive"
)

// FolderService handles the folder tree: creation, listing, renaming and
// recursive deletion.
type FolderService interface {
	// CreateFolder creates a folder inside an existing parent. The new folder
	// belongs to the parent's owner and inherits the parent's grants.
	CreateFolder(ctx context.Context, user *models.User, req *CreateFolderRequest) (*drive.Folder, error)

	// GetContents lists one level of a folder
	GetContents(ctx context.Context, user *models.User, folderID int64) (*drive.FolderContents, error)

	// GetRoot lists the caller's root folder
	GetRoot(ctx context.Context, user *models.User) (*drive.FolderContents, error)

	// GetUserRoot lists another user's root folder (Admin only)
	GetUserRoot(ctx context.Context, user *models.User, userID int64) (*drive.FolderContents, error)

	// ListAll lists every folder (Admin only)
	ListAll(ctx context.Context, user *models.User) ([]drive.Folder, error)

	// RenameFolder renames a folder; root folders cannot be renamed
	RenameFolder(ctx context.Context, user *models.User, folderID int64, req *RenameFolderRequest) (*drive.Folder, error)

	// DeleteFolder removes a folder and everything beneath it
	DeleteFolder(ctx context.Context, user *models.User, folderID int64) (*DeleteResult, error)

	// ProvisionUserRoot creates the user's root folder if it does not exist
	ProvisionUserRoot(ctx context.Context, userID int64) (*drive.Folder, error)

	// CreateProjectFolder creates a folder tagged with projectID under the owner's root
	CreateProjectFolder(ctx context.Context, ownerID, projectID int64, name string) (*drive.Folder, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	ParentFolderID *int64 `json:"parentFolderId"`
	Name           string `json:"name"`
}

// RenameFolderRequest represents a folder rename request
type RenameFolderRequest struct {
	Name string `json:"name"`
}

// DeleteResult summarises a recursive deletion.
// FailedBlobs lists storage keys whose blobs could not be removed after the
// rows were committed.
type DeleteResult struct {
	FoldersDeleted int      `json:"foldersDeleted"`
	FilesDeleted   int      `json:"filesDeleted"`
	FailedBlobs    []string `json:"failedBlobs,omitempty"`
}
