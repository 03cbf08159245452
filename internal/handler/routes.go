package handler

import "net/http"

// Handlers groups every handler mounted on the API mux
type Handlers struct {
	Health  *HealthHandler
	Folder  *FolderHandler
	File    *FileHandler
	Sharing *SharingHandler
}

// RegisterRoutes mounts the API on mux. Literal segments such as
// /api/folders/root win over /api/folders/{id} by pattern precedence.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Folders
	mux.HandleFunc("GET /api/folders", h.Folder.ListFolders)
	mux.HandleFunc("POST /api/folders", h.Folder.CreateFolder)
	mux.HandleFunc("GET /api/folders/root", h.Folder.GetRoot)
	mux.HandleFunc("GET /api/folders/shared", h.Sharing.ListShared)
	mux.HandleFunc("GET /api/folders/user-root/{id}", h.Folder.GetUserRoot)
	mux.HandleFunc("GET /api/folders/download/{id}", h.Folder.DownloadFolder)
	mux.HandleFunc("GET /api/folders/{id}", h.Folder.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", h.Folder.RenameFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", h.Folder.DeleteFolder)
	mux.HandleFunc("POST /api/folders/share", h.Sharing.ShareFolder)
	mux.HandleFunc("POST /api/folders/unshare", h.Sharing.UnshareFolder)

	// Files
	mux.HandleFunc("POST /api/files", h.File.UploadFile)
	mux.HandleFunc("POST /api/files/share", h.Sharing.ShareFile)
	mux.HandleFunc("POST /api/files/unshare", h.Sharing.UnshareFile)
	mux.HandleFunc("GET /api/files/{id}", h.File.GetFile)
	mux.HandleFunc("GET /api/files/{id}/content", h.File.DownloadFile)
	mux.HandleFunc("PATCH /api/files/{id}", h.File.RenameFile)
	mux.HandleFunc("DELETE /api/files/{id}", h.File.DeleteFile)
}
