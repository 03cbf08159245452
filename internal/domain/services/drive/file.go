package drive

import (
	"context"
	"io"

	"docvault/internal/domain/models"
	"docvault/internal/domain/models/drive"
)

// FileService handles file metadata and blob content.
type FileService interface {
	// UploadFile stores content in a folder the caller can read
	UploadFile(ctx context.Context, user *models.User, req *UploadFileRequest) (*drive.File, error)

	GetFile(ctx context.Context, user *models.User, fileID int64) (*drive.File, error)

	// OpenFile returns the file and a reader over its content. Caller closes the reader.
	OpenFile(ctx context.Context, user *models.User, fileID int64) (*drive.File, io.ReadCloser, error)

	RenameFile(ctx context.Context, user *models.User, fileID int64, req *RenameFileRequest) (*drive.File, error)

	// DeleteFile removes the file row, its grants and its blob
	DeleteFile(ctx context.Context, user *models.User, fileID int64) error
}

// UploadFileRequest carries an upload. Content is consumed once.
type UploadFileRequest struct {
	FolderID    int64
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// RenameFileRequest represents a file rename request
type RenameFileRequest struct {
	Name string `json:"name"`
}
