package s3

import (
	"io"
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owner/draft.pdf", want: "owner/draft.pdf"},
		{name: "simple prefix", prefix: "drafts", key: "owner/draft.pdf", want: "drafts/owner/draft.pdf"},
		{name: "prefix trailing slash", prefix: "drafts/", key: "owner/draft.pdf", want: "drafts/owner/draft.pdf"},
		{name: "prefix and key slashes", prefix: "/drafts/", key: "/owner/draft.pdf", want: "drafts/owner/draft.pdf"},
		{name: "empty key", prefix: "drafts", key: "", want: "drafts"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestCountingReaderTracksBytes(t *testing.T) {
	counter := &countingReader{r: strings.NewReader("resume-bytes")}
	if _, err := io.Copy(io.Discard, counter); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if counter.n != int64(len("resume-bytes")) {
		t.Fatalf("expected %d bytes, got %d", len("resume-bytes"), counter.n)
	}
}
