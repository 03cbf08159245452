package auth

import (
	"context"
	"errors"
	"fmt"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	driveRepo "docvault/internal/domain/repositories/drive"
)

// GrantAuthorizer implements ResourceAuthorizer from ownership, the Admin
// role and the shared_folders/shared_files grant rows.
type GrantAuthorizer struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	grantRepo  driveRepo.GrantRepository
}

// NewGrantAuthorizer creates a new grant-based authorizer
func NewGrantAuthorizer(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	grantRepo driveRepo.GrantRepository,
) *GrantAuthorizer {
	return &GrantAuthorizer{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		grantRepo:  grantRepo,
	}
}

// CanAccessFolder allows Admin, the owner and any grantee
func (a *GrantAuthorizer) CanAccessFolder(ctx context.Context, user *models.User, folderID int64) error {
	if user == nil {
		return domain.ErrUnauthorized
	}

	folder, err := a.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return fmt.Errorf("get folder for auth: %w", err)
	}
	if user.IsAdmin() || folder.OwnerID == user.ID {
		return nil
	}

	_, err = a.grantRepo.GetFolderGrant(ctx, user.ID, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("access denied to folder %d: %w", folderID, domain.ErrForbidden)
		}
		return fmt.Errorf("check folder grant: %w", err)
	}
	return nil
}

// CanManageFolder allows Admin and the owner
func (a *GrantAuthorizer) CanManageFolder(ctx context.Context, user *models.User, folderID int64) error {
	if user == nil {
		return domain.ErrUnauthorized
	}

	folder, err := a.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return fmt.Errorf("get folder for auth: %w", err)
	}
	if user.IsAdmin() || folder.OwnerID == user.ID {
		return nil
	}
	return fmt.Errorf("only the owner can modify folder %d: %w", folderID, domain.ErrForbidden)
}

// CanAccessFile allows Admin, the owner and any grantee of the file
func (a *GrantAuthorizer) CanAccessFile(ctx context.Context, user *models.User, fileID int64) error {
	if user == nil {
		return domain.ErrUnauthorized
	}

	file, err := a.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("get file for auth: %w", err)
	}
	if user.IsAdmin() || file.OwnerID == user.ID {
		return nil
	}

	_, err = a.grantRepo.GetFileGrant(ctx, user.ID, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("access denied to file %d: %w", fileID, domain.ErrForbidden)
		}
		return fmt.Errorf("check file grant: %w", err)
	}
	return nil
}

// CanManageFile allows Admin and the owner
func (a *GrantAuthorizer) CanManageFile(ctx context.Context, user *models.User, fileID int64) error {
	if user == nil {
		return domain.ErrUnauthorized
	}

	file, err := a.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("get file for auth: %w", err)
	}
	if user.IsAdmin() || file.OwnerID == user.ID {
		return nil
	}
	return fmt.Errorf("only the owner can modify file %d: %w", fileID, domain.ErrForbidden)
}
