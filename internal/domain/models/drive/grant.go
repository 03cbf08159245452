package drive

// FolderGrant gives a non-owner read access to a folder.
// Root marks the folder that was shared explicitly; grants created by
// propagation into descendants carry Root=false.
type FolderGrant struct {
	UserID   int64 `json:"userId" db:"user_id"`
	FolderID int64 `json:"folderId" db:"folder_id"`
	Root     bool  `json:"root" db:"root"`
}

// FileGrant gives a non-owner read access to a file.
type FileGrant struct {
	UserID int64 `json:"userId" db:"user_id"`
	FileID int64 `json:"fileId" db:"file_id"`
	Root   bool  `json:"root" db:"root"`
}
