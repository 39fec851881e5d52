// Package photos stores uploaded report and issue photos in the configured
// storage backend (local disk or S3).
package photos

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// MaxUploadSize bounds a single multipart upload.
const MaxUploadSize = 10 << 20

// FormField is the multipart field carrying the image.
const FormField = "image"

var (
	ErrNoFile   = errors.New("an image file is required")
	ErrTooLarge = errors.New("image is too large (max 10MB)")
	ErrNotImage = errors.New("file is not an image")
)

// Backend is the subset of storage.Store the uploader needs.
type Backend interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// Uploader writes photos under <prefix>/YYYY/MM/<uuid><ext>.
type Uploader struct {
	backend Backend
	now     func() time.Time
}

func NewUploader(backend Backend) *Uploader {
	return &Uploader{backend: backend, now: time.Now}
}

// FromRequest stores the image in the request's multipart form. Errors
// ErrNoFile, ErrTooLarge and ErrNotImage are safe to show to the client.
func (u *Uploader) FromRequest(ctx context.Context, r *http.Request, prefix string) (models.Photo, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.Photo{}, ErrTooLarge
		}
		return models.Photo{}, ErrNoFile
	}
	file, header, err := r.FormFile(FormField)
	if err != nil {
		return models.Photo{}, ErrNoFile
	}
	defer file.Close()
	if header.Size > MaxUploadSize {
		return models.Photo{}, ErrTooLarge
	}

	// Trust the bytes, not the client's Content-Type header.
	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return models.Photo{}, ErrNotImage
	}

	now := u.now().UTC()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := fmt.Sprintf("%s/%04d/%02d/%s%s", prefix, now.Year(), int(now.Month()), uuid.NewString(), ext)

	if err := u.backend.Put(ctx, path, br, &storage.PutOptions{ContentType: contentType}); err != nil {
		return models.Photo{}, fmt.Errorf("store photo: %w", err)
	}
	return models.Photo{Path: path, ContentType: contentType, UploadedAt: now}, nil
}

// Discard removes a stored photo whose database record could not be saved.
func (u *Uploader) Discard(ctx context.Context, p models.Photo) error {
	return u.backend.Delete(ctx, p.Path)
}

// Resolve fills in the public URL of each photo.
func (u *Uploader) Resolve(ps []models.Photo) []models.Photo {
	for i := range ps {
		ps[i].URL = u.backend.URL(ps[i].Path)
	}
	return ps
}

// IsClientError reports whether err should be answered with 400.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFile) || errors.Is(err, ErrTooLarge) || errors.Is(err, ErrNotImage)
}
