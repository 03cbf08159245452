package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/config"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	driveModels "docvault/internal/domain/models/drive"
	"docvault/internal/domain/repositories"
	driveRepo "docvault/internal/domain/repositories/drive"
	"docvault/internal/domain/services"
	driveSvc "docvault/internal/domain/services/drive"
)

type sharingService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	grantRepo  driveRepo.GrantRepository
	userRepo   repositories.UserRepository
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewSharingService creates a new sharing service
func NewSharingService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	grantRepo driveRepo.GrantRepository,
	userRepo repositories.UserRepository,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) driveSvc.SharingService {
	return &sharingService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		grantRepo:  grantRepo,
		userRepo:   userRepo,
		txManager:  txManager,
		authorizer: authorizer,
		logger:     logger,
	}
}

// ShareFolder gives req.UserID access to the folder and its whole subtree
func (s *sharingService) ShareFolder(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	if err := validateShareRequest(req); err != nil {
		return err
	}
	if err := s.authorizer.CanManageFolder(ctx, user, req.ResourceID); err != nil {
		return err
	}

	folder, err := s.folderRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		return err
	}
	if err := s.checkGrantee(ctx, folder.OwnerID, req.UserID, "folder"); err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.grantRepo.GrantFolder(ctx, req.UserID, folder.ID, true); err != nil {
			return err
		}
		return s.propagateGrants(ctx, folder.ID, req.UserID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder shared",
		"folder_id", folder.ID,
		"user_id", req.UserID,
		"shared_by", user.ID,
	)
	return nil
}

// propagateGrants adds a non-root grant on every file and folder below folderID
func (s *sharingService) propagateGrants(ctx context.Context, folderID, userID int64) error {
	files, err := s.fileRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	for _, file := range files {
		if err := s.grantRepo.GrantFile(ctx, userID, file.ID, false); err != nil {
			return err
		}
	}

	children, err := s.folderRepo.ListChildren(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list child folders: %w", err)
	}
	for _, child := range children {
		if err := s.grantRepo.GrantFolder(ctx, userID, child.ID, false); err != nil {
			return err
		}
		if err := s.propagateGrants(ctx, child.ID, userID); err != nil {
			return err
		}
	}

	s.logger.Debug("grants propagated", "folder_id", folderID, "user_id", userID,
		"files", len(files), "folders", len(children))
	return nil
}

// UnshareFolder removes the explicit grant and everything it propagated.
// When an ancestor is still shared with the user the explicit grant is
// demoted to a propagated one and the subtree keeps its grants.
func (s *sharingService) UnshareFolder(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	if err := validateShareRequest(req); err != nil {
		return err
	}
	if err := s.authorizer.CanManageFolder(ctx, user, req.ResourceID); err != nil {
		return err
	}

	folder, err := s.folderRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		return err
	}

	grant, err := s.grantRepo.GetFolderGrant(ctx, req.UserID, folder.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // nothing shared
		}
		return err
	}
	if !grant.Root {
		return &domain.ValidationError{Message: "folder is shared through a parent folder; unshare the parent instead"}
	}

	inherited, err := s.ancestorGranted(ctx, folder, req.UserID)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if inherited {
			return s.grantRepo.SetFolderGrantRoot(ctx, req.UserID, folder.ID, false)
		}
		if err := s.revokeGrants(ctx, folder.ID, req.UserID); err != nil {
			return err
		}
		return s.grantRepo.RevokeFolder(ctx, req.UserID, folder.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder unshared",
		"folder_id", folder.ID,
		"user_id", req.UserID,
		"demoted", inherited,
		"unshared_by", user.ID,
	)
	return nil
}

// revokeGrants removes the propagated grants below folderID. Explicit grants
// and the subtrees under explicitly shared folders are left alone.
func (s *sharingService) revokeGrants(ctx context.Context, folderID, userID int64) error {
	files, err := s.fileRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	for _, file := range files {
		grant, err := s.grantRepo.GetFileGrant(ctx, userID, file.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return err
		}
		if grant.Root {
			continue
		}
		if err := s.grantRepo.RevokeFile(ctx, userID, file.ID); err != nil {
			return err
		}
	}

	children, err := s.folderRepo.ListChildren(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list child folders: %w", err)
	}
	for _, child := range children {
		grant, err := s.grantRepo.GetFolderGrant(ctx, userID, child.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if grant != nil && grant.Root {
			continue
		}
		if grant != nil {
			if err := s.grantRepo.RevokeFolder(ctx, userID, child.ID); err != nil {
				return err
			}
		}
		if err := s.revokeGrants(ctx, child.ID, userID); err != nil {
			return err
		}
	}
	return nil
}

// ancestorGranted reports whether any ancestor of folder carries a grant for userID
func (s *sharingService) ancestorGranted(ctx context.Context, folder *driveModels.Folder, userID int64) (bool, error) {
	parentID := folder.ParentID
	for depth := 0; parentID != nil; depth++ {
		if depth > config.MaxFolderDepth {
			return false, fmt.Errorf("folder %d: parent chain too deep: %w", folder.ID, domain.ErrInternal)
		}
		_, err := s.grantRepo.GetFolderGrant(ctx, userID, *parentID)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
		parent, err := s.folderRepo.GetByID(ctx, *parentID)
		if err != nil {
			return false, err
		}
		parentID = parent.ParentID
	}
	return false, nil
}

// ShareFile gives req.UserID access to a single file
func (s *sharingService) ShareFile(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	if err := validateShareRequest(req); err != nil {
		return err
	}
	if err := s.authorizer.CanManageFile(ctx, user, req.ResourceID); err != nil {
		return err
	}

	file, err := s.fileRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		return err
	}
	if err := s.checkGrantee(ctx, file.OwnerID, req.UserID, "file"); err != nil {
		return err
	}

	if err := s.grantRepo.GrantFile(ctx, req.UserID, file.ID, true); err != nil {
		return err
	}

	s.logger.Info("file shared",
		"file_id", file.ID,
		"user_id", req.UserID,
		"shared_by", user.ID,
	)
	return nil
}

// UnshareFile removes a file grant, or demotes it when the containing folder
// is still shared with the user
func (s *sharingService) UnshareFile(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	if err := validateShareRequest(req); err != nil {
		return err
	}
	if err := s.authorizer.CanManageFile(ctx, user, req.ResourceID); err != nil {
		return err
	}

	file, err := s.fileRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		return err
	}

	grant, err := s.grantRepo.GetFileGrant(ctx, req.UserID, file.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if !grant.Root {
		return &domain.ValidationError{Message: "file is shared through its folder; unshare the folder instead"}
	}

	inherited, err := s.reachesFolder(ctx, file.FolderID, req.UserID)
	if err != nil {
		return err
	}
	if inherited {
		err = s.grantRepo.SetFileGrantRoot(ctx, req.UserID, file.ID, false)
	} else {
		err = s.grantRepo.RevokeFile(ctx, req.UserID, file.ID)
	}
	if err != nil {
		return err
	}

	s.logger.Info("file unshared",
		"file_id", file.ID,
		"user_id", req.UserID,
		"demoted", inherited,
		"unshared_by", user.ID,
	)
	return nil
}

// reachesFolder reports whether userID sees folderID's files without a file
// share: as the folder's owner or through any grant on the folder
func (s *sharingService) reachesFolder(ctx context.Context, folderID, userID int64) (bool, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return false, err
	}
	if folder.OwnerID == userID {
		return true, nil
	}
	_, err = s.grantRepo.GetFolderGrant(ctx, userID, folderID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// ListSharedWithMe lists folders and files carrying a root grant for the caller
func (s *sharingService) ListSharedWithMe(ctx context.Context, user *models.User) (*driveModels.SharedWithMe, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	folders, err := s.grantRepo.ListSharedFolders(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	files, err := s.grantRepo.ListSharedFiles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &driveModels.SharedWithMe{Folders: folders, Files: files}, nil
}

// checkGrantee rejects sharing with the owner and with unknown users
func (s *sharingService) checkGrantee(ctx context.Context, ownerID, granteeID int64, what string) error {
	if ownerID == granteeID {
		return &domain.ValidationError{Message: fmt.Sprintf("cannot share a %s with its owner", what)}
	}
	if _, err := s.userRepo.GetByID(ctx, granteeID); err != nil {
		return err
	}
	return nil
}

func validateShareRequest(req *driveSvc.ShareRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ResourceID, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.UserID, validation.Required, validation.Min(int64(1))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// inheritFolderGrants calls grant for every user holding a grant on folderID,
// skipping exceptUserID
func inheritFolderGrants(ctx context.Context, grantRepo driveRepo.GrantRepository, folderID, exceptUserID int64, grant func(userID int64) error) error {
	grants, err := grantRepo.ListFolderGrants(ctx, folderID)
	if err != nil {
		return err
	}
	for _, g := range grants {
		if g.UserID == exceptUserID {
			continue
		}
		if err := grant(g.UserID); err != nil {
			return err
		}
	}
	return nil
}
