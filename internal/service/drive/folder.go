package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	driveModels "docvault/internal/domain/models/drive"
	"docvault/internal/domain/repositories"
	driveRepo "docvault/internal/domain/repositories/drive"
	"docvault/internal/domain/services"
	driveSvc "docvault/internal/domain/services/drive"
	"docvault/internal/storage"
)

type folderService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	grantRepo  driveRepo.GrantRepository
	blobs      storage.Storage
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	grantRepo driveRepo.GrantRepository,
	blobs storage.Storage,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) driveSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		grantRepo:  grantRepo,
		blobs:      blobs,
		txManager:  txManager,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateFolder creates a folder inside req.ParentFolderID
func (s *folderService) CreateFolder(ctx context.Context, user *models.User, req *driveSvc.CreateFolderRequest) (*driveModels.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanManageFolder(ctx, user, *req.ParentFolderID); err != nil {
		return nil, err
	}

	parent, err := s.folderRepo.GetByID(ctx, *req.ParentFolderID)
	if err != nil {
		return nil, err
	}

	if err := s.checkSiblingName(ctx, parent.ID, 0, req.Name); err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &driveModels.Folder{
		Name:      req.Name,
		OwnerID:   parent.OwnerID,
		ParentID:  &parent.ID,
		ProjectID: parent.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.folderRepo.Create(ctx, folder); err != nil {
			return err
		}
		// users who can see the parent can see the new folder
		return inheritFolderGrants(ctx, s.grantRepo, parent.ID, 0, func(userID int64) error {
			return s.grantRepo.GrantFolder(ctx, userID, folder.ID, false)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"parent_folder_id", parent.ID,
		"created_by", user.ID,
	)

	return folder, nil
}

// GetContents lists one level of a folder
func (s *folderService) GetContents(ctx context.Context, user *models.User, folderID int64) (*driveModels.FolderContents, error) {
	if err := s.authorizer.CanAccessFolder(ctx, user, folderID); err != nil {
		return nil, err
	}
	return s.listContents(ctx, folderID)
}

// GetRoot lists the caller's root folder
func (s *folderService) GetRoot(ctx context.Context, user *models.User) (*driveModels.FolderContents, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	root, err := s.folderRepo.GetRoot(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.listContents(ctx, root.ID)
}

// GetUserRoot lists another user's root folder
func (s *folderService) GetUserRoot(ctx context.Context, user *models.User, userID int64) (*driveModels.FolderContents, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}

	root, err := s.folderRepo.GetRoot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.listContents(ctx, root.ID)
}

// ListAll lists every folder
func (s *folderService) ListAll(ctx context.Context, user *models.User) ([]driveModels.Folder, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	return s.folderRepo.ListAll(ctx)
}

// RenameFolder renames a folder in place
func (s *folderService) RenameFolder(ctx context.Context, user *models.User, folderID int64, req *driveSvc.RenameFolderRequest) (*driveModels.Folder, error) {
	if err := s.authorizer.CanManageFolder(ctx, user, folderID); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, folderNameRules()...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.IsRoot() {
		return nil, &domain.ValidationError{Message: "the root folder cannot be renamed"}
	}
	if folder.Name == req.Name {
		return folder, nil
	}

	if err := s.checkSiblingName(ctx, *folder.ParentID, folder.ID, req.Name); err != nil {
		return nil, err
	}

	folder.Name = req.Name
	folder.UpdatedAt = time.Now()
	if err := s.folderRepo.Rename(ctx, folder.ID, folder.Name, folder.UpdatedAt); err != nil {
		return nil, err
	}

	s.logger.Info("folder renamed",
		"id", folder.ID,
		"name", folder.Name,
		"renamed_by", user.ID,
	)

	return folder, nil
}

// DeleteFolder deletes a folder and everything beneath it in one transaction.
// Blobs are removed after the commit; a blob that cannot be removed is
// reported in the result and does not undo the deletion.
func (s *folderService) DeleteFolder(ctx context.Context, user *models.User, folderID int64) (*driveSvc.DeleteResult, error) {
	if err := s.authorizer.CanManageFolder(ctx, user, folderID); err != nil {
		return nil, err
	}

	result := &driveSvc.DeleteResult{}
	var blobKeys []string

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.deleteTree(ctx, folderID, result, &blobKeys)
	})
	if err != nil {
		return nil, err
	}

	for _, key := range blobKeys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete blob after folder deletion",
				"folder_id", folderID,
				"key", key,
				"error", err,
			)
			result.FailedBlobs = append(result.FailedBlobs, key)
		}
	}

	s.logger.Info("folder deleted",
		"id", folderID,
		"folders_deleted", result.FoldersDeleted,
		"files_deleted", result.FilesDeleted,
		"blob_failures", len(result.FailedBlobs),
		"deleted_by", user.ID,
	)

	return result, nil
}

// deleteTree removes leaves first: child folders, then files with their
// grants, then the folder's own grants and row.
func (s *folderService) deleteTree(ctx context.Context, folderID int64, result *driveSvc.DeleteResult, blobKeys *[]string) error {
	children, err := s.folderRepo.ListChildren(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list child folders: %w", err)
	}
	for _, child := range children {
		if err := s.deleteTree(ctx, child.ID, result, blobKeys); err != nil {
			return err
		}
	}

	files, err := s.fileRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	for _, file := range files {
		if err := s.grantRepo.DeleteFileGrants(ctx, file.ID); err != nil {
			return err
		}
		if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
			return fmt.Errorf("delete file %q: %w", file.Name, err)
		}
		*blobKeys = append(*blobKeys, file.StorageRoute)
		result.FilesDeleted++
		s.logger.Debug("deleted file", "id", file.ID, "name", file.Name)
	}

	if err := s.grantRepo.DeleteFolderGrants(ctx, folderID); err != nil {
		return err
	}
	if err := s.folderRepo.Delete(ctx, folderID); err != nil {
		return err
	}
	result.FoldersDeleted++
	s.logger.Debug("deleted folder", "id", folderID)

	return nil
}

// ProvisionUserRoot creates the user's root folder unless it exists
func (s *folderService) ProvisionUserRoot(ctx context.Context, userID int64) (*driveModels.Folder, error) {
	root, err := s.folderRepo.GetRoot(ctx, userID)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	root = &driveModels.Folder{
		Name:      driveModels.RootFolderName,
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.folderRepo.Create(ctx, root); err != nil {
		// lost a race with a concurrent provision
		if errors.Is(err, domain.ErrConflict) {
			return s.folderRepo.GetRoot(ctx, userID)
		}
		return nil, err
	}

	s.logger.Info("root folder provisioned", "id", root.ID, "user_id", userID)
	return root, nil
}

// CreateProjectFolder creates a project folder under the owner's root
func (s *folderService) CreateProjectFolder(ctx context.Context, ownerID, projectID int64, name string) (*driveModels.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, folderNameRules()...); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	root, err := s.ProvisionUserRoot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	children, err := s.folderRepo.ListChildren(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	for i := range children {
		if children[i].ProjectID != nil && *children[i].ProjectID == projectID {
			return &children[i], nil
		}
	}
	if err := s.checkSiblingName(ctx, root.ID, 0, name); err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &driveModels.Folder{
		Name:      name,
		OwnerID:   ownerID,
		ParentID:  &root.ID,
		ProjectID: &projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("project folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", ownerID,
		"project_id", projectID,
	)
	return folder, nil
}

func (s *folderService) listContents(ctx context.Context, folderID int64) (*driveModels.FolderContents, error) {
	folders, err := s.folderRepo.ListChildren(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	files, err := s.fileRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return &driveModels.FolderContents{
		ID:      folderID,
		Folders: folders,
		Files:   files,
	}, nil
}

// checkSiblingName rejects a name already used by another child of parentID
func (s *folderService) checkSiblingName(ctx context.Context, parentID, selfID int64, name string) error {
	siblings, err := s.folderRepo.ListChildren(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	for _, sibling := range siblings {
		if sibling.ID != selfID && sibling.Name == name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
				ResourceType: "folder",
				ResourceID:   strconv.FormatInt(sibling.ID, 10),
			}
		}
	}
	return nil
}

// validateCreateRequest validates a folder creation request
func (s *folderService) validateCreateRequest(req *driveSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ParentFolderID, validation.Required.Error("parent folder is required")),
		validation.Field(&req.Name, folderNameRules()...),
	)
}

func requireAdmin(user *models.User) error {
	if user == nil {
		return domain.ErrUnauthorized
	}
	if !user.IsAdmin() {
		return fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	}
	return nil
}
