package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
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

const defaultContentType = "application/octet-stream"

type fileService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	grantRepo  driveRepo.GrantRepository
	blobs      storage.Storage
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	grantRepo driveRepo.GrantRepository,
	blobs storage.Storage,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) driveSvc.FileService {
	return &fileService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		grantRepo:  grantRepo,
		blobs:      blobs,
		txManager:  txManager,
		authorizer: authorizer,
		logger:     logger,
	}
}

// UploadFile stores the blob first and then the metadata. If the metadata
// cannot be written the blob is removed again.
func (s *fileService) UploadFile(ctx context.Context, user *models.User, req *driveSvc.UploadFileRequest) (*driveModels.File, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.FolderID, validation.Required.Error("folder is required")),
		validation.Field(&req.Name, fileNameRules()...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	// anyone who can read the folder can add to it
	if err := s.authorizer.CanAccessFolder(ctx, user, req.FolderID); err != nil {
		return nil, err
	}

	folder, err := s.folderRepo.GetByID(ctx, req.FolderID)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(user.ID, req.Name)
	counter := &countingReader{r: req.Content}
	if err := s.blobs.Put(ctx, key, counter); err != nil {
		return nil, fmt.Errorf("store upload: %w: %v", domain.ErrInternal, err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	now := time.Now()
	file := &driveModels.File{
		Name:         req.Name,
		StorageRoute: key,
		ContentType:  contentType,
		Size:         counter.n,
		OwnerID:      user.ID,
		FolderID:     folder.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.fileRepo.Create(ctx, file); err != nil {
			return err
		}
		if err := inheritFolderGrants(ctx, s.grantRepo, folder.ID, user.ID, func(userID int64) error {
			return s.grantRepo.GrantFile(ctx, userID, file.ID, false)
		}); err != nil {
			return err
		}
		// a grantee uploading into someone else's folder must not hide the file from its owner
		if folder.OwnerID != user.ID {
			return s.grantRepo.GrantFile(ctx, folder.OwnerID, file.ID, false)
		}
		return nil
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned blob", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"name", file.Name,
		"folder_id", folder.ID,
		"size", file.Size,
		"uploaded_by", user.ID,
	)

	return file, nil
}

func (s *fileService) GetFile(ctx context.Context, user *models.User, fileID int64) (*driveModels.File, error) {
	if err := s.authorizer.CanAccessFile(ctx, user, fileID); err != nil {
		return nil, err
	}
	return s.fileRepo.GetByID(ctx, fileID)
}

func (s *fileService) OpenFile(ctx context.Context, user *models.User, fileID int64) (*driveModels.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, user, fileID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.blobs.Get(ctx, file.StorageRoute)
	if err != nil {
		// metadata without content is a storage fault, not a missing file
		s.logger.Error("blob missing for file", "id", file.ID, "key", file.StorageRoute, "error", err)
		return nil, nil, fmt.Errorf("read file %d: %w", file.ID, domain.ErrInternal)
	}
	return file, content, nil
}

func (s *fileService) RenameFile(ctx context.Context, user *models.User, fileID int64, req *driveSvc.RenameFileRequest) (*driveModels.File, error) {
	if err := s.authorizer.CanManageFile(ctx, user, fileID); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, fileNameRules()...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	file.Name = req.Name
	file.UpdatedAt = time.Now()
	if err := s.fileRepo.Rename(ctx, file.ID, file.Name, file.UpdatedAt); err != nil {
		return nil, err
	}

	s.logger.Info("file renamed", "id", file.ID, "name", file.Name, "renamed_by", user.ID)
	return file, nil
}

func (s *fileService) DeleteFile(ctx context.Context, user *models.User, fileID int64) error {
	if err := s.authorizer.CanManageFile(ctx, user, fileID); err != nil {
		return err
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.grantRepo.DeleteFileGrants(ctx, file.ID); err != nil {
			return err
		}
		return s.fileRepo.Delete(ctx, file.ID)
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, file.StorageRoute); err != nil {
		s.logger.Warn("failed to delete blob", "id", file.ID, "key", file.StorageRoute, "error", err)
	}

	s.logger.Info("file deleted", "id", file.ID, "name", file.Name, "deleted_by", user.ID)
	return nil
}

// countingReader records how many bytes were read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
