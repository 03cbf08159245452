package drive

import (
	"context"

	"docvault/internal/domain/models"
	"docvault/internal/domain/models/drive"
)

// SharingService creates and removes grants.
type SharingService interface {
	// ShareFolder grants a user the folder and, through propagated grants,
	// everything beneath it. Sharing twice leaves storage unchanged.
	ShareFolder(ctx context.Context, user *models.User, req *ShareRequest) error

	// UnshareFolder removes the explicit grant and the propagated grants it created
	UnshareFolder(ctx context.Context, user *models.User, req *ShareRequest) error

	// ShareFile grants a user a single file
	ShareFile(ctx context.Context, user *models.User, req *ShareRequest) error

	// UnshareFile removes a single file grant
	UnshareFile(ctx context.Context, user *models.User, req *ShareRequest) error

	// ListSharedWithMe lists what was explicitly shared with the caller
	ListSharedWithMe(ctx context.Context, user *models.User) (*drive.SharedWithMe, error)
}

// ShareRequest names the resource and the user receiving (or losing) access.
// ResourceID is a folder ID or a file ID depending on the operation.
type ShareRequest struct {
	ResourceID int64 `json:"-"`
	UserID     int64 `json:"userId"`
}
