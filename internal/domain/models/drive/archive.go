package drive

import "time"

// Archive is a handle to a zip export written to temporary storage.
type Archive struct {
	FileName  string    // download name, e.g. "Reports.zip"
	Path      string    // location on disk
	Size      int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
