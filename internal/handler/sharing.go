package handler

import (
	"log/slog"
	"net/http"

	driveSvc "docvault/internal/domain/services/drive"
	"docvault/internal/httputil"
)

// SharingHandler handles share and unshare requests for folders and files
type SharingHandler struct {
	sharingService driveSvc.SharingService
	logger         *slog.Logger
}

// NewSharingHandler creates a new sharing handler
func NewSharingHandler(sharingService driveSvc.SharingService, logger *slog.Logger) *SharingHandler {
	return &SharingHandler{
		sharingService: sharingService,
		logger:         logger,
	}
}

type shareFolderBody struct {
	FolderID int64 `json:"folderId"`
	UserID   int64 `json:"userId"`
}

type shareFileBody struct {
	FileID int64 `json:"fileId"`
	UserID int64 `json:"userId"`
}

// ShareFolder shares a folder subtree with a user
// POST /api/folders/share
func (h *SharingHandler) ShareFolder(w http.ResponseWriter, r *http.Request) {
	var body shareFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := &driveSvc.ShareRequest{ResourceID: body.FolderID, UserID: body.UserID}
	if err := h.sharingService.ShareFolder(r.Context(), httputil.GetUser(r), req); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Folder shared"})
}

// UnshareFolder revokes a folder share
// POST /api/folders/unshare
func (h *SharingHandler) UnshareFolder(w http.ResponseWriter, r *http.Request) {
	var body shareFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := &driveSvc.ShareRequest{ResourceID: body.FolderID, UserID: body.UserID}
	if err := h.sharingService.UnshareFolder(r.Context(), httputil.GetUser(r), req); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Folder unshared"})
}

// ShareFile shares a single file with a user
// POST /api/files/share
func (h *SharingHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	var body shareFileBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := &driveSvc.ShareRequest{ResourceID: body.FileID, UserID: body.UserID}
	if err := h.sharingService.ShareFile(r.Context(), httputil.GetUser(r), req); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "File shared"})
}

// UnshareFile revokes a file share
// POST /api/files/unshare
func (h *SharingHandler) UnshareFile(w http.ResponseWriter, r *http.Request) {
	var body shareFileBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := &driveSvc.ShareRequest{ResourceID: body.FileID, UserID: body.UserID}
	if err := h.sharingService.UnshareFile(r.Context(), httputil.GetUser(r), req); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "File unshared"})
}

// ListShared lists folders and files explicitly shared with the caller
// GET /api/folders/shared
func (h *SharingHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	shared, err := h.sharingService.ListSharedWithMe(r.Context(), httputil.GetUser(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, shared)
}
