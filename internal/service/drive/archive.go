package drive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault/internal/config"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	driveModels "docvault/internal/domain/models/drive"
	driveRepo "docvault/internal/domain/repositories/drive"
	"docvault/internal/domain/services"
	driveSvc "docvault/internal/domain/services/drive"
	"docvault/internal/storage"
)

// ArchiveConfig controls where exports are written and how long they live
type ArchiveConfig struct {
	Dir string
	TTL time.Duration
}

type archiveService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	blobs      storage.Storage
	authorizer services.ResourceAuthorizer
	cfg        ArchiveConfig
	logger     *slog.Logger
}

// NewArchiveService creates a new archive exporter
func NewArchiveService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	blobs storage.Storage,
	authorizer services.ResourceAuthorizer,
	cfg ArchiveConfig,
	logger *slog.Logger,
) driveSvc.ArchiveService {
	return &archiveService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		blobs:      blobs,
		authorizer: authorizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// ExportFolder zips the folder and its descendants. Entry paths start with
// the exported folder's name and follow the folder hierarchy below it.
func (s *archiveService) ExportFolder(ctx context.Context, user *models.User, folderID int64) (*driveModels.Archive, error) {
	if err := s.authorizer.CanAccessFolder(ctx, user, folderID); err != nil {
		return nil, err
	}

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w: %v", domain.ErrInternal, err)
	}

	base := sanitizeEntryName(folder.Name)
	archivePath := filepath.Join(s.cfg.Dir, fmt.Sprintf("%s_%s.zip", base, uuid.NewString()))

	size, err := s.writeArchive(ctx, archivePath, folder, base)
	if err != nil {
		if rmErr := os.Remove(archivePath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("failed to remove partial archive", "path", archivePath, "error", rmErr)
		}
		s.logger.Error("folder export failed", "folder_id", folder.ID, "error", err)
		return nil, fmt.Errorf("export folder %d: %w", folder.ID, domain.ErrInternal)
	}

	now := time.Now()
	archive := &driveModels.Archive{
		FileName:  base + ".zip",
		Path:      archivePath,
		Size:      size,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	s.logger.Info("folder exported",
		"folder_id", folder.ID,
		"path", archivePath,
		"size", size,
		"exported_by", user.ID,
	)
	return archive, nil
}

func (s *archiveService) writeArchive(ctx context.Context, archivePath string, folder *driveModels.Folder, base string) (int64, error) {
	f, err := os.OpenFile(archivePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	walkErr := s.addFolder(ctx, zw, folder, base, 0)
	closeErr := zw.Close()
	syncErr := f.Close()
	if err := errors.Join(walkErr, closeErr, syncErr); err != nil {
		return 0, err
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	return info.Size(), nil
}

// addFolder writes a directory entry for folder, then its files, then its subfolders
func (s *archiveService) addFolder(ctx context.Context, zw *zip.Writer, folder *driveModels.Folder, prefix string, depth int) error {
	if depth > config.MaxFolderDepth {
		return fmt.Errorf("folder %d: tree too deep", folder.ID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := zw.CreateHeader(&zip.FileHeader{
		Name:     prefix + "/",
		Method:   zip.Store,
		Modified: folder.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("add directory %s: %w", prefix, err)
	}

	names := uniqueNames{}

	files, err := s.fileRepo.ListByFolder(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	for i := range files {
		if err := s.addFile(ctx, zw, &files[i], path.Join(prefix, names.next(files[i].Name))); err != nil {
			return err
		}
	}

	children, err := s.folderRepo.ListChildren(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("list child folders: %w", err)
	}
	for i := range children {
		childPrefix := path.Join(prefix, names.next(children[i].Name))
		if err := s.addFolder(ctx, zw, &children[i], childPrefix, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *archiveService) addFile(ctx context.Context, zw *zip.Writer, file *driveModels.File, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := s.blobs.Get(ctx, file.StorageRoute)
	if err != nil {
		return fmt.Errorf("read blob for file %d: %w", file.ID, err)
	}
	defer content.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: file.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("add entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, content); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func (s *archiveService) Open(archive *driveModels.Archive) (*os.File, error) {
	f, err := os.Open(archive.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("archive expired: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return f, nil
}

func (s *archiveService) Release(archive *driveModels.Archive) error {
	if err := os.Remove(archive.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}
	return nil
}

// sanitizeEntryName turns a folder or file name into a single safe path element
func sanitizeEntryName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "item"
	}
	return name
}

// uniqueNames suffixes repeated names within one directory: "a.txt", "a (1).txt"
type uniqueNames map[string]int

func (u uniqueNames) next(name string) string {
	name = sanitizeEntryName(name)
	n := u[name]
	u[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
	// a literal "a (1).txt" may already exist
	for u[candidate] > 0 {
		n++
		candidate = fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
	}
	u[candidate] = 1
	return candidate
}
