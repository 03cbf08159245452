package drive

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/config"
)

var noSlashes = regexp.MustCompile(`^[^/\\]+$`)

// nameRules are the rules shared by folder and file names
func nameRules(maxLength int, what string) []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, maxLength),
		validation.Match(noSlashes).Error(what + " name cannot contain slashes"),
		validation.By(func(value any) error {
			if s, _ := value.(string); s == "." || s == ".." {
				return errors.New(what + " name cannot be a relative path element")
			}
			return nil
		}),
	}
}

func folderNameRules() []validation.Rule {
	return nameRules(config.MaxFolderNameLength, "folder")
}

func fileNameRules() []validation.Rule {
	return nameRules(config.MaxFileNameLength, "file")
}
