package drive

import (
	"time"
)

// RootFolderName is the name of the parent-less folder every user owns.
const RootFolderName = "root"

type Folder struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   int64     `json:"userId" db:"user_id"`
	ParentID  *int64    `json:"parentFolderId" db:"parent_folder_id"` // NULL only for a user's root
	ProjectID *int64    `json:"projectId,omitempty" db:"project_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsRoot reports whether f is a user's top-level folder.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// FolderContents is one level of a folder: its direct subfolders and files.
type FolderContents struct {
	ID      int64    `json:"id"`
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// SharedWithMe lists the folders and files explicitly shared with a user.
type SharedWithMe struct {
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}
