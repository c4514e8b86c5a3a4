package object

import (
	"context"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is how many leading bytes stores read to detect the content type.
const SniffLen = 3072

// ErrInvalidKey is returned for storage keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// ObjectStore defines the contract for saving, reading and discarding binary objects.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// DetectMimeType sniffs the content type from the leading bytes of a blob.
func DetectMimeType(head []byte) string {
	return mimetype.Detect(head).String()
}

// ReadHead reads up to SniffLen bytes, tolerating short inputs.
func ReadHead(r io.Reader) ([]byte, error) {
	buf := make([]byte, SniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}
