package helpers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
)

const (
	EventsFolder   = "events"
	MaxImageBytes  = 5 << 20
	staticRootName = "static"
)

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageStore persists an uploaded image and returns the path or URL to store on the event.
type ImageStore interface {
	Save(ctx context.Context, filename string, size int64, data io.Reader) (string, error)
	// Delete removes an image previously returned by Save.
	Delete(ctx context.Context, stored string) error
}

// CheckImage validates the extension and size and returns the normalized extension and content type.
func CheckImage(filename string, size int64) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		return "", "", apperrors.NewValidationError("image", "image must be a jpg, jpeg, png, gif or webp file")
	}
	if size <= 0 || size > MaxImageBytes {
		return "", "", apperrors.NewValidationError("image", "image must be between 1 byte and 5 MiB")
	}
	return ext, contentType, nil
}

// LocalImageStore writes uploads under a directory served at /static.
type LocalImageStore struct {
	dir string
}

func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{dir: dir}
}

func (s *LocalImageStore) Save(ctx context.Context, filename string, size int64, data io.Reader) (string, error) {
	ext, _, err := CheckImage(filename, size)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.New().String() + ext
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(data, MaxImageBytes)); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return path.Join(filepath.ToSlash(s.dir), name), nil
}

func (s *LocalImageStore) Delete(ctx context.Context, stored string) error {
	name := path.Base(filepath.ToSlash(stored))
	if name == "." || name == "/" {
		return fmt.Errorf("invalid image path %q", stored)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// SupabaseImageStore uploads to a public Supabase Storage bucket.
type SupabaseImageStore struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseImageStore(client *storage_go.Client, bucket string) *SupabaseImageStore {
	return &SupabaseImageStore{client: client, bucket: bucket}
}

func (s *SupabaseImageStore) Save(ctx context.Context, filename string, size int64, data io.Reader) (string, error) {
	ext, contentType, err := CheckImage(filename, size)
	if err != nil {
		return "", err
	}

	objectPath := path.Join(EventsFolder, uuid.New().String()+ext)
	upsert := false
	_, err = s.client.UploadFile(s.bucket, objectPath, io.LimitReader(data, MaxImageBytes), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.client.GetPublicUrl(s.bucket, objectPath).SignedURL, nil
}

// Delete accepts the public URL returned by Save.
func (s *SupabaseImageStore) Delete(ctx context.Context, stored string) error {
	marker := "/public/" + s.bucket + "/"
	i := strings.Index(stored, marker)
	if i < 0 {
		return fmt.Errorf("image %q is not in bucket %s", stored, s.bucket)
	}
	objectPath := stored[i+len(marker):]
	if _, err := s.client.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// StaticRoot is the directory served at /static for a local upload dir like "static/upload".
func StaticRoot(uploadDir string) string {
	clean := filepath.ToSlash(filepath.Clean(uploadDir))
	if i := strings.Index(clean, staticRootName+"/"); i >= 0 {
		return clean[:i+len(staticRootName)]
	}
	return filepath.Dir(clean)
}
