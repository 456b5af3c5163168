// Package filestore persists uploaded documents (application forms,
// resources, transcripts) in a durable backend and returns a URL for each.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is a durable file backend.
type Store interface {
	// Put stores body under key and returns the durable URL.
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	// ErrUnsupportedType is returned when the sniffed content type is not allowed.
	ErrUnsupportedType = errors.New("unsupported file type; upload a PDF, JPEG, PNG, or WebP file")
	// ErrTooLarge is returned when a file exceeds the configured size limit.
	ErrTooLarge = errors.New("file is too large")
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("file is empty")
	// ErrStorage wraps backend failures.
	ErrStorage = errors.New("file storage unavailable")
)

// AllowedTypes lists the content types accepted for uploaded documents.
var AllowedTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
}

// Stored describes a file after upload.
type Stored struct {
	Key         string
	URL         string
	FileName    string
	Size        int64
	ContentType string
}

// UploadMultipart validates and stores one multipart file. The key is
// generated as: <prefix>/YYYY/MM/uuid8-filename.
func UploadMultipart(ctx context.Context, store Store, prefix string, fh *multipart.FileHeader, maxBytes int64) (Stored, error) {
	if fh.Size > maxBytes {
		return Stored{}, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return Stored{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return Upload(ctx, store, prefix, fh.Filename, f, maxBytes)
}

// Upload reads at most maxBytes from r, checks its content type against
// AllowedTypes, and stores it under a fresh key.
func Upload(ctx context.Context, store Store, prefix, filename string, r io.Reader, maxBytes int64) (Stored, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Stored{}, ErrEmpty
	}
	if int64(len(data)) > maxBytes {
		return Stored{}, ErrTooLarge
	}

	ct := DetectContentType(data)
	if _, ok := AllowedTypes[ct]; !ok {
		return Stored{}, ErrUnsupportedType
	}

	key := NewKey(prefix, filename, time.Now())
	url, err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), ct)
	if err != nil {
		return Stored{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return Stored{
		Key:         key,
		URL:         url,
		FileName:    filename,
		Size:        int64(len(data)),
		ContentType: ct,
	}, nil
}

// DetectContentType sniffs data and returns its media type without parameters.
func DetectContentType(data []byte) string {
	ct, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return strings.TrimSpace(ct)
}

// NewKey builds a unique storage key under prefix.
func NewKey(prefix, filename string, now time.Time) string {
	now = now.UTC()
	dateDir := fmt.Sprintf("%s/%04d/%02d", prefix, now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], SanitizeFilename(filename))
	return filepath.ToSlash(filepath.Join(dateDir, uniqueName))
}

// SanitizeFilename removes or replaces characters that could be problematic in keys.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	if filename == "." || filename == "/" {
		filename = ""
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		// keep the extension
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
