package wizard

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"fitcheck-web/internal/preview"
	"fitcheck-web/internal/shared/storage/object"
)

const (
	msgFileRequired = "Please select a file to upload"
	msgFileType     = "Only PDF, DOC, and DOCX files are allowed"
	msgFileMismatch = "The file contents do not match its type. Only PDF, DOC, and DOCX files are allowed"
)

// ValidationError reports input the wizard refuses. It never reaches the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// FileInput is a file chosen through the picker or dropped on the page.
type FileInput struct {
	Name         string
	DeclaredType string
	Size         int64
	Data         []byte
}

var allowedTypes = map[string][]string{
	preview.MimePDF:  {preview.MimePDF},
	preview.MimeDOC:  {preview.MimeDOC, "application/x-ole-storage"},
	preview.MimeDOCX: {preview.MimeDOCX, "application/zip"},
}

var extensionTypes = map[string]string{
	".pdf":  preview.MimePDF,
	".doc":  preview.MimeDOC,
	".docx": preview.MimeDOCX,
}

// ValidateFile checks presence, size, declared type and sniffed content, and
// returns the accepted MIME type.
func ValidateFile(in FileInput, maxBytes int64) (string, error) {
	size := in.Size
	if size < int64(len(in.Data)) {
		size = int64(len(in.Data))
	}
	if strings.TrimSpace(in.Name) == "" || size == 0 {
		return "", MissingFile()
	}
	if size > maxBytes {
		return "", TooLarge(maxBytes)
	}

	declared := baseType(in.DeclaredType)
	if declared == "" || declared == "application/octet-stream" {
		declared = extensionTypes[strings.ToLower(filepath.Ext(in.Name))]
	}
	family, ok := allowedTypes[declared]
	if !ok {
		return "", &ValidationError{Field: "file", Message: msgFileType}
	}

	head := in.Data
	if len(head) > object.SniffLen {
		head = head[:object.SniffLen]
	}
	sniffed := baseType(object.DetectMimeType(head))
	for _, candidate := range family {
		if sniffed == candidate {
			return declared, nil
		}
	}
	return "", &ValidationError{Field: "file", Message: msgFileMismatch}
}

// TooLarge is the error for a file over maxBytes.
func TooLarge(maxBytes int64) *ValidationError {
	return &ValidationError{Field: "file", Message: fmt.Sprintf("File size must be less than %s", formatBytes(maxBytes))}
}

// MissingFile is the error for a submission without a file.
func MissingFile() *ValidationError {
	return &ValidationError{Field: "file", Message: msgFileRequired}
}

// validateDescription enforces the minimum length on the trimmed text.
func validateDescription(text string, minChars int) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ValidationError{Field: "description", Message: "Please enter a job description"}
	}
	if utf8.RuneCountInString(trimmed) < minChars {
		return "", &ValidationError{
			Field:   "description",
			Message: fmt.Sprintf("Job description must be at least %d characters", minChars),
		}
	}
	return trimmed, nil
}

func baseType(raw string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(raw, ";")[0]))
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%dKB", n/(1<<10))
	}
	return fmt.Sprintf("%d bytes", n)
}
