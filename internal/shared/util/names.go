package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

const maxFileNameRunes = 128

var ErrBadFileName = errors.New("invalid file name")

// OwnerKey maps a session ID to the directory or key prefix its spooled
// resumes live under, so the raw ID never appears in storage paths.
func OwnerKey(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:])
}

// SafeFileName flattens an uploaded file name into a single path segment.
func SafeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrBadFileName
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "", ErrBadFileName
	}
	if runes := []rune(name); len(runes) > maxFileNameRunes {
		name = string(runes[len(runes)-maxFileNameRunes:])
	}
	return name, nil
}
