package resumes

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/web/views"
)

type fakeUploader struct {
	files [][]byte
	mimes []string
	err   error
}

func (f *fakeUploader) UploadResume(_ context.Context, file gateway.ResumeFile) (gateway.ResumeAck, error) {
	data, _ := io.ReadAll(file.Body)
	f.files = append(f.files, data)
	f.mimes = append(f.mimes, file.MimeType)
	if f.err != nil {
		return gateway.ResumeAck{}, f.err
	}
	return gateway.ResumeAck{ID: "r_1", FileName: file.Name}, nil
}

func newTestRouter(backend Uploader, max int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(views.Must())
	NewHandler(backend, max).RegisterRoutes(r)
	return r
}

func pdfBytes(size int) []byte {
	data := bytes.Repeat([]byte("a"), size)
	copy(data, "%PDF-1.4\n")
	return data
}

func uploadRequest(t *testing.T, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="resume"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, uploadPath, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestShowMentionsLimit(t *testing.T) {
	r := newTestRouter(&fakeUploader{}, 10<<20)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, uploadPath, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "up to 10.00 MB") {
		t.Fatalf("expected size hint, got %s", rec.Body.String())
	}
}

func TestUploadWithoutFile(t *testing.T) {
	backend := &fakeUploader{}
	r := newTestRouter(backend, 10<<20)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "", "", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Please select a file to upload") {
		t.Fatalf("expected missing file message, got %s", rec.Body.String())
	}
	if len(backend.files) != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestUploadRejectsWrongType(t *testing.T) {
	backend := &fakeUploader{}
	r := newTestRouter(backend, 10<<20)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "notes.txt", "text/plain", []byte("hello")))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only PDF, DOC, and DOCX files are allowed") {
		t.Fatalf("expected type message, got %s", rec.Body.String())
	}
	if len(backend.files) != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	backend := &fakeUploader{}
	r := newTestRouter(backend, 1<<10)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "resume.pdf", "application/pdf", pdfBytes(2<<10)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "File size must be less than 1KB") {
		t.Fatalf("expected size message, got %s", rec.Body.String())
	}
}

func TestUploadSendsValidatedFile(t *testing.T) {
	backend := &fakeUploader{}
	r := newTestRouter(backend, 10<<20)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "resume.pdf", "application/pdf", pdfBytes(4096)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(backend.files) != 1 || len(backend.files[0]) != 4096 || backend.mimes[0] != "application/pdf" {
		t.Fatalf("unexpected upload %d files", len(backend.files))
	}
	if !strings.Contains(rec.Body.String(), "Uploaded resume.pdf") {
		t.Fatalf("expected ack, got %s", rec.Body.String())
	}
}

func TestUploadBackendFailure(t *testing.T) {
	r := newTestRouter(&fakeUploader{err: &gateway.APIError{Op: "upload", Status: 500}}, 10<<20)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "resume.pdf", "application/pdf", pdfBytes(4096)))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgUploadFailed) {
		t.Fatalf("expected failure message, got %s", rec.Body.String())
	}
}
