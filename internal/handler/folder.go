package handler

import (
	"log/slog"
	"mime"
	"net/http"

	driveSvc "docvault/internal/domain/services/drive"
	"docvault/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService  driveSvc.FolderService
	archiveService driveSvc.ArchiveService
	logger         *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(
	folderService driveSvc.FolderService,
	archiveService driveSvc.ArchiveService,
	logger *slog.Logger,
) *FolderHandler {
	return &FolderHandler{
		folderService:  folderService,
		archiveService: archiveService,
		logger:         logger,
	}
}

// ListFolders lists every folder
// GET /api/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folderService.ListAll(r.Context(), httputil.GetUser(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folders)
}

// GetRoot lists the caller's root folder
// GET /api/folders/root
func (h *FolderHandler) GetRoot(w http.ResponseWriter, r *http.Request) {
	contents, err := h.folderService.GetRoot(r.Context(), httputil.GetUser(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, contents)
}

// GetUserRoot lists another user's root folder
// GET /api/folders/user-root/{id}
func (h *FolderHandler) GetUserRoot(w http.ResponseWriter, r *http.Request) {
	userID, ok := PathParam(w, r, "id", "User ID")
	if !ok {
		return
	}

	contents, err := h.folderService.GetUserRoot(r.Context(), httputil.GetUser(r), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, contents)
}

// GetFolder lists one level of a folder
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	folderID, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	contents, err := h.folderService.GetContents(r.Context(), httputil.GetUser(r), folderID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, contents)
}

// CreateFolder creates a folder inside an existing one
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req driveSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.folderService.CreateFolder(r.Context(), httputil.GetUser(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// RenameFolder renames a folder
// PATCH /api/folders/{id}
func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	folderID, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	var req driveSvc.RenameFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.folderService.RenameFolder(r.Context(), httputil.GetUser(r), folderID, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder and everything beneath it
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	folderID, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	result, err := h.folderService.DeleteFolder(r.Context(), httputil.GetUser(r), folderID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// DownloadFolder streams a zip of the folder's subtree. The archive is
// removed once the response has been written.
// GET /api/folders/download/{id}
func (h *FolderHandler) DownloadFolder(w http.ResponseWriter, r *http.Request) {
	folderID, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	archive, err := h.archiveService.ExportFolder(r.Context(), httputil.GetUser(r), folderID)
	if err != nil {
		handleError(w, err)
		return
	}
	defer func() {
		if err := h.archiveService.Release(archive); err != nil {
			// the sweeper removes it after the TTL
			h.logger.Warn("failed to release archive", "path", archive.Path, "error", err)
		}
	}()

	f, err := h.archiveService.Open(archive)
	if err != nil {
		handleError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", contentDisposition(archive.FileName))
	http.ServeContent(w, r, archive.FileName, archive.CreatedAt, f)
}

// contentDisposition encodes non-ASCII names per RFC 2231
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
