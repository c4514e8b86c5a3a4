package util

import (
	"errors"
	"strings"
	"testing"
)

func TestOwnerKeyIsStableHex(t *testing.T) {
	key := OwnerKey("session-1")
	if key != OwnerKey("session-1") || key == OwnerKey("session-2") {
		t.Fatalf("expected a stable per-session key, got %s", key)
	}
	if len(key) != 64 || strings.Trim(key, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 hex characters, got %q", key)
	}
}

func TestSafeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "resume.pdf", want: "resume.pdf"},
		{in: " dir/resume.docx ", want: "dir_resume.docx"},
		{in: `c:\tmp\cv.doc`, want: "c:_tmp_cv.doc"},
		{in: "cv\x00\n.pdf", want: "cv.pdf"},
	}
	for _, tc := range cases {
		got, err := SafeFileName(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("SafeFileName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
	for _, bad := range []string{"../secret", "   ", "\x01\x02"} {
		if _, err := SafeFileName(bad); !errors.Is(err, ErrBadFileName) {
			t.Fatalf("SafeFileName(%q) expected ErrBadFileName, got %v", bad, err)
		}
	}
}

func TestSafeFileNameKeepsExtensionWhenTruncating(t *testing.T) {
	got, err := SafeFileName(strings.Repeat("a", 300) + ".pdf")
	if err != nil {
		t.Fatalf("SafeFileName: %v", err)
	}
	if len([]rune(got)) != maxFileNameRunes || !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("expected truncated name ending in .pdf, got %d runes", len([]rune(got)))
	}
}
