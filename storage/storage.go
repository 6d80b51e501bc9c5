// Package storage keeps uploaded application documents on local disk or in
// an S3-compatible bucket.
package storage

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("invalid storage path")

// objectName builds "<folder>/<uuid><ext>" from a user supplied filename.
func objectName(folder, filename string) (string, error) {
	folder = path.Clean("/" + filepath.ToSlash(strings.TrimSpace(folder)))
	folder = strings.TrimPrefix(folder, "/")
	if folder == "" || folder == "." || strings.Contains(folder, "..") {
		return "", ErrInvalidPath
	}
	ext := strings.ToLower(path.Ext(filepath.Base(filename)))
	if len(ext) > 10 {
		ext = ""
	}
	return folder + "/" + uuid.NewString() + ext, nil
}
