package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	driveSvc "docvault/internal/domain/services/drive"
	"docvault/internal/httputil"
)

// multipart parts beyond this are spooled to disk by net/http
const uploadMemoryBytes = 8 << 20

// FileHandler handles file HTTP requests
type FileHandler struct {
	fileService    driveSvc.FileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService driveSvc.FileService, maxUploadBytes int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// UploadFile stores a multipart upload in a folder.
// Form fields: folderId (required), file (required), name (optional override).
// POST /api/files
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	folderID, err := strconv.ParseInt(r.FormValue("folderId"), 10, 64)
	if err != nil || folderID <= 0 {
		httputil.RespondError(w, http.StatusBadRequest, "folderId must be a positive integer")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer part.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	file, err := h.fileService.UploadFile(r.Context(), httputil.GetUser(r), &driveSvc.UploadFileRequest{
		FolderID:    folderID,
		Name:        name,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     part,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, file)
}

// GetFile returns file metadata
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := PathParam(w, r, "id", "File ID")
	if !ok {
		return
	}

	file, err := h.fileService.GetFile(r.Context(), httputil.GetUser(r), fileID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// DownloadFile streams file content
// GET /api/files/{id}/content
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := PathParam(w, r, "id", "File ID")
	if !ok {
		return
	}

	file, content, err := h.fileService.OpenFile(r.Context(), httputil.GetUser(r), fileID)
	if err != nil {
		handleError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(file.Name))

	if seeker, ok := content.(io.ReadSeeker); ok {
		http.ServeContent(w, r, file.Name, file.UpdatedAt, seeker)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		h.logger.Warn("file download interrupted", "id", file.ID, "error", err)
	}
}

// RenameFile renames a file
// PATCH /api/files/{id}
func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := PathParam(w, r, "id", "File ID")
	if !ok {
		return
	}

	var req driveSvc.RenameFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	file, err := h.fileService.RenameFile(r.Context(), httputil.GetUser(r), fileID, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// DeleteFile deletes a file
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := PathParam(w, r, "id", "File ID")
	if !ok {
		return
	}

	if err := h.fileService.DeleteFile(r.Context(), httputil.GetUser(r), fileID); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "File deleted"})
}
