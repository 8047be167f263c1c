package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-projects-backend/errs"
)

// ImageUploader stores an uploaded image and returns the path or URL clients
// should reference it by.
type ImageUploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// ImageRemover deletes images hosted on an external service. Owns reports
// whether an image reference points at that service at all.
type ImageRemover interface {
	Owns(imageURL string) bool
	Delete(ctx context.Context, imageURL string) error
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9.]`)

// UploadName derives a unique stored name from the client supplied file name.
// Every character outside [A-Za-z0-9.] becomes an underscore.
func UploadName(original string, now time.Time) string {
	safe := unsafeNameChars.ReplaceAllString(original, "_")
	if safe == "" {
		safe = fmt.Sprintf("upload_%d", now.UnixMilli())
	}
	return uuid.NewString() + "-" + safe
}

// LocalImageStore writes uploads to a directory served by the API itself.
type LocalImageStore struct {
	dir       string
	urlPrefix string
}

func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{dir: dir, urlPrefix: "assets"}
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Upload returns the relative path "assets/<name>".
func (s *LocalImageStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errs.NewStorageUnavailableError("local disk", "upload image", err)
	}

	target := filepath.Join(s.dir, filepath.Base(name))
	f, err := os.Create(target)
	if err != nil {
		return "", errs.NewStorageUnavailableError("local disk", "upload image", err)
	}

	_, err = io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A partial file must not be served
		_ = os.Remove(target)
		return "", errs.NewStorageUnavailableError("local disk", "upload image", err)
	}
	return path.Join(s.urlPrefix, filepath.Base(name)), nil
}
