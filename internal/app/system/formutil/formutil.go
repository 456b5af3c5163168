// Package formutil reads urlencoded and multipart request bodies.
package formutil

import (
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultMaxMemory is how much of a multipart body is kept in memory before
// file parts spill to temporary files.
const DefaultMaxMemory = 8 << 20

var (
	// ErrUnreadableBody is returned when the body cannot be parsed as a form.
	ErrUnreadableBody = errors.New("request body could not be read as a form")
	// ErrBodyTooLarge is returned when the body runs past an
	// http.MaxBytesReader limit.
	ErrBodyTooLarge = errors.New("request body is too large")
)

// Parse parses the request form. Multipart bodies are parsed with maxMemory
// (DefaultMaxMemory if <= 0); anything else goes through ParseForm.
func Parse(r *http.Request, maxMemory int64) error {
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}
	ct := r.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(strings.ToLower(ct), "multipart/form-data") {
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return ErrUnreadableBody
	}
	return nil
}

// Value returns the trimmed form value for key.
func Value(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// ObjectID parses a hex ObjectID, trimming surrounding whitespace.
func ObjectID(s string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.TrimSpace(s))
}

// Cleanup removes temporary files left by a parsed multipart form.
func Cleanup(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
