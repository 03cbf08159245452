package drive

import "time"

type File struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	StorageRoute string    `json:"route" db:"route"` // opaque blob key
	ContentType  string    `json:"contentType" db:"content_type"`
	Size         int64     `json:"size" db:"size"`
	OwnerID      int64     `json:"userId" db:"user_id"`
	FolderID     int64     `json:"folderId" db:"folder_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
