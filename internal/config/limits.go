package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for file names.
	MaxFileNameLength = 255

	// MaxFolderDepth bounds walks along parent chains and down subtrees.
	// Deeper trees indicate a corrupted parent chain.
	MaxFolderDepth = 256
)
