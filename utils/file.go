package utils

import (
	"path/filepath"
	"strings"
)

// FileExtension returns the lowercased extension (with dot) of an uploaded
// filename, defaulting to ".png" when the name carries none.
func FileExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ".png"
	}
	return ext
}
