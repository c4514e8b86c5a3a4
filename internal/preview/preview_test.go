package preview

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestSummarizeDocxCountsWords(t *testing.T) {
	data := buildDocx(t, "Jane Doe", "Senior Go engineer building payment systems")

	summary, err := Summarize(context.Background(), data, MimeDOCX)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Words != 8 {
		t.Fatalf("expected 8 words, got %d (%q)", summary.Words, summary.Excerpt)
	}
	if summary.Pages != 0 {
		t.Fatalf("expected unknown page count, got %d", summary.Pages)
	}
	if !strings.HasPrefix(summary.Excerpt, "Jane Doe Senior") {
		t.Fatalf("unexpected excerpt %q", summary.Excerpt)
	}
}

func TestSummarizeTruncatesExcerpt(t *testing.T) {
	summary := summarizeText(strings.Repeat("word ", excerptWords+5), 2)
	if summary.Words != excerptWords+5 || summary.Pages != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !strings.HasSuffix(summary.Excerpt, "…") {
		t.Fatalf("expected ellipsis, got %q", summary.Excerpt)
	}
}

func TestSummarizeRejectsUnsupportedTypes(t *testing.T) {
	_, err := Summarize(context.Background(), []byte{0xD0, 0xCF, 0x11, 0xE0}, MimeDOC)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestSummarizeBrokenPDFReturnsError(t *testing.T) {
	if _, err := Summarize(context.Background(), []byte("%PDF-1.4\nnot really"), "application/pdf; charset=binary"); err == nil {
		t.Fatal("expected error for broken pdf")
	}
}

func TestSummarizeHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Summarize(ctx, []byte("x"), MimePDF); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStripXMLBreaksParagraphs(t *testing.T) {
	got := stripXML(`<w:body><w:p><w:t>one</w:t></w:p><w:p><w:t>two</w:t></w:p></w:body>`)
	if got != "one\ntwo" {
		t.Fatalf("unexpected text %q", got)
	}
}
