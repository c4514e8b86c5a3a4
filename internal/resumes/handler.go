// Package resumes serves the standalone resume upload page.
package resumes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/shared/telemetry"
	"fitcheck-web/internal/web/views"
	"fitcheck-web/internal/wizard"
)

const (
	uploadPath = "/resumes/upload"

	formOverhead = 1 << 20

	msgUploadFailed = "Failed to upload resume. Please try again."
)

// Routes are the POST routes that reach the backend.
var Routes = []string{uploadPath}

// Uploader sends a resume to the backend.
type Uploader interface {
	UploadResume(ctx context.Context, file gateway.ResumeFile) (gateway.ResumeAck, error)
}

type Handler struct {
	backend  Uploader
	maxBytes int64
}

func NewHandler(backend Uploader, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{backend: backend, maxBytes: maxUploadBytes}
}

// RegisterRoutes attaches the upload routes. They must sit behind guard.Require.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(uploadPath, h.show)
	r.POST(uploadPath, h.upload)
}

type uploadData struct {
	MaxBytes int64
	Ack      *gateway.ResumeAck
}

func (h *Handler) show(c *gin.Context) {
	h.render(c, http.StatusOK, nil, "")
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+formOverhead)
	header, err := c.FormFile("resume")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.render(c, http.StatusRequestEntityTooLarge, nil, wizard.TooLarge(h.maxBytes).Message)
			return
		}
		h.render(c, http.StatusUnprocessableEntity, nil, wizard.MissingFile().Message)
		return
	}
	if header.Size > h.maxBytes {
		h.render(c, http.StatusRequestEntityTooLarge, nil, wizard.TooLarge(h.maxBytes).Message)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.render(c, http.StatusBadRequest, nil, wizard.MissingFile().Message)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.render(c, http.StatusBadRequest, nil, wizard.MissingFile().Message)
		return
	}

	mimeType, err := wizard.ValidateFile(wizard.FileInput{
		Name:         header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Data:         data,
	}, h.maxBytes)
	if err != nil {
		var vErr *wizard.ValidationError
		if errors.As(err, &vErr) {
			h.render(c, http.StatusUnprocessableEntity, nil, vErr.Message)
			return
		}
		h.render(c, http.StatusUnprocessableEntity, nil, msgUploadFailed)
		return
	}

	ack, err := h.backend.UploadResume(c.Request.Context(), gateway.ResumeFile{
		Name:     header.Filename,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Body:     bytes.NewReader(data),
	})
	if err != nil {
		telemetry.Warn("resumes.upload_failed", map[string]any{
			"error":      err,
			"file_name":  header.Filename,
			"request_id": c.GetString("requestId"),
		})
		h.render(c, http.StatusBadGateway, nil, msgUploadFailed)
		return
	}
	telemetry.Info("resumes.uploaded", map[string]any{
		"resume_id":  ack.ID,
		"mime_type":  mimeType,
		"size_bytes": len(data),
		"request_id": c.GetString("requestId"),
	})
	h.render(c, http.StatusCreated, &ack, "")
}

func (h *Handler) render(c *gin.Context, status int, ack *gateway.ResumeAck, errMsg string) {
	page := views.For(c, "Upload resume", "upload")
	page.Error = errMsg
	page.Data = uploadData{MaxBytes: h.maxBytes, Ack: ack}
	c.HTML(status, "resumes_upload", page)
}
