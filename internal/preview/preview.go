// Package preview computes a short summary of an uploaded resume for the
// description step. Libraries used: github.com/ledongthuc/pdf (PDF) and
// github.com/nguyenthenguyen/docx (DOCX).
package preview

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	excerptWords = 40
)

// ErrUnsupported is returned for content types that have no text extractor.
var ErrUnsupported = errors.New("preview not supported for this file type")

// Summary is what the description step shows about the selected file.
// Zero Pages means the count is unknown.
type Summary struct {
	Pages   int
	Words   int
	Excerpt string
}

// Summarize extracts text from an in-memory resume. Callers treat errors as
// "no preview" and keep going.
func Summarize(ctx context.Context, data []byte, mimeType string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	if len(data) == 0 {
		return Summary{}, errors.New("empty file")
	}
	switch normalizeMimeType(mimeType) {
	case MimePDF:
		return summarizePDF(data)
	case MimeDOCX:
		return summarizeDOCX(data)
	default:
		return Summary{}, fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
}

func summarizePDF(data []byte) (summary Summary, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			summary, err = Summary{}, fmt.Errorf("pdf preview: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Summary{}, fmt.Errorf("pdf preview: %w", err)
	}

	var text strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, _ := page.GetPlainText(nil)
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return summarizeText(text.String(), pages), nil
}

func summarizeDOCX(data []byte) (Summary, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Summary{}, fmt.Errorf("docx preview: %w", err)
	}
	defer doc.Close()

	return summarizeText(stripXML(doc.Editable().GetContent()), 0), nil
}

func summarizeText(text string, pages int) Summary {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	excerpt := words
	if len(excerpt) > excerptWords {
		excerpt = excerpt[:excerptWords]
	}
	out := Summary{Pages: pages, Words: len(words), Excerpt: strings.Join(excerpt, " ")}
	if len(words) > excerptWords {
		out.Excerpt += " …"
	}
	return out
}

// stripXML keeps character data from a WordprocessingML body, breaking lines
// at paragraph and line-break ends.
func stripXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
