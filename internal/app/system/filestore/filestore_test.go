package filestore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/filestore"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"card.pdf", "card.pdf"},
		{"my card (1).pdf", "my_card__1_.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/sub/photo.png", "photo.png"},
		{"", "file"},
		{strings.Repeat("a", 120) + ".pdf", strings.Repeat("a", 96) + ".pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := filestore.SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewKey(t *testing.T) {
	now := time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC)
	key := filestore.NewKey("forms", "Ghana Card.pdf", now)

	if !strings.HasPrefix(key, "forms/2025/07/") {
		t.Errorf("key %q missing date prefix", key)
	}
	if !strings.HasSuffix(key, "-Ghana_Card.pdf") {
		t.Errorf("key %q missing sanitized filename", key)
	}
	if other := filestore.NewKey("forms", "Ghana Card.pdf", now); other == key {
		t.Error("expected unique keys for the same filename")
	}
}

func TestDetectContentType(t *testing.T) {
	if got := filestore.DetectContentType(pdfBytes); got != "application/pdf" {
		t.Errorf("pdf: got %q", got)
	}
	if got := filestore.DetectContentType(pngBytes); got != "image/png" {
		t.Errorf("png: got %q", got)
	}
	if got := filestore.DetectContentType([]byte("hello world")); got != "text/plain" {
		t.Errorf("text: got %q", got)
	}
}

func TestUpload_Local(t *testing.T) {
	root := t.TempDir()
	store, err := filestore.NewLocal(root, "/files/")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	ctx := context.Background()

	st, err := filestore.Upload(ctx, store, "transcripts", "report.pdf", bytes.NewReader(pdfBytes), 1<<20)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if st.ContentType != "application/pdf" {
		t.Errorf("content type: got %q", st.ContentType)
	}
	if st.URL != "/files/"+st.Key {
		t.Errorf("url: got %q, want %q", st.URL, "/files/"+st.Key)
	}

	onDisk, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(st.Key)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if !bytes.Equal(onDisk, pdfBytes) {
		t.Error("stored bytes differ from upload")
	}

	if err := store.Delete(ctx, st.Key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, st.Key); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestUpload_Rejections(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		max     int64
		wantErr error
	}{
		{"empty", nil, 1024, filestore.ErrEmpty},
		{"too large", pdfBytes, 10, filestore.ErrTooLarge},
		{"text file", []byte("just some text"), 1024, filestore.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := filestore.Upload(context.Background(), store, "forms", "x", bytes.NewReader(tt.data), tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, io.ReadSeeker, int64, string) (string, error) {
	return "", errors.New("bucket unreachable")
}
func (failingStore) Delete(context.Context, string) error { return nil }

func TestUpload_BackendFailureIsStorageError(t *testing.T) {
	_, err := filestore.Upload(context.Background(), failingStore{}, "forms", "a.pdf", bytes.NewReader(pdfBytes), 1024)
	if !errors.Is(err, filestore.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
}

func TestS3URL(t *testing.T) {
	s, err := filestore.NewS3(context.Background(), filestore.S3Config{
		Region:    "eu-west-1",
		Bucket:    "coach-docs",
		Prefix:    "coachhub/",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3 failed: %v", err)
	}
	want := "https://coach-docs.s3.eu-west-1.amazonaws.com/coachhub/forms/a.pdf"
	if got := s.URL("forms/a.pdf"); got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}
