// Package jobposts serves the job post form.
package jobposts

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/shared/telemetry"
	"fitcheck-web/internal/web/views"
)

const (
	formPath = "/jobs/new"

	msgRequired  = "Please fill in all required fields"
	msgJobURL    = "Please enter a valid job URL (http:// or https://)"
	msgCreateErr = "Failed to create job post. Please try again."
)

// Routes are the POST routes that reach the backend.
var Routes = []string{formPath}

// Creator sends a job post to the backend.
type Creator interface {
	CreateJobPost(ctx context.Context, post gateway.JobPost) (gateway.JobPostAck, error)
}

type Handler struct {
	backend Creator
}

func NewHandler(backend Creator) *Handler {
	return &Handler{backend: backend}
}

// RegisterRoutes attaches the form routes. They must sit behind guard.Require.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(formPath, h.show)
	r.POST(formPath, h.create)
}

type formData struct {
	Form gateway.JobPost
	Ack  *gateway.JobPostAck
}

func (h *Handler) show(c *gin.Context) {
	h.render(c, http.StatusOK, formData{}, "")
}

func (h *Handler) create(c *gin.Context) {
	post := gateway.JobPost{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Company:     strings.TrimSpace(c.PostForm("company")),
		Description: strings.TrimSpace(c.PostForm("description")),
		JobURL:      strings.TrimSpace(c.PostForm("jobUrl")),
	}
	if msg := validate(post); msg != "" {
		h.render(c, http.StatusUnprocessableEntity, formData{Form: post}, msg)
		return
	}

	ack, err := h.backend.CreateJobPost(c.Request.Context(), post)
	if err != nil {
		telemetry.Warn("jobposts.create_failed", map[string]any{
			"error":      err,
			"request_id": c.GetString("requestId"),
		})
		h.render(c, http.StatusBadGateway, formData{Form: post}, msgCreateErr)
		return
	}
	h.render(c, http.StatusCreated, formData{Ack: &ack}, "")
}

func (h *Handler) render(c *gin.Context, status int, data formData, errMsg string) {
	page := views.For(c, "Post a job", "jobs")
	page.Error = errMsg
	page.Data = data
	c.HTML(status, "jobs_new", page)
}

// validate returns the message for the first problem, or "".
func validate(post gateway.JobPost) string {
	if post.Title == "" || post.Company == "" || post.Description == "" {
		return msgRequired
	}
	if post.JobURL == "" {
		return ""
	}
	u, err := url.Parse(post.JobURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return msgJobURL
	}
	return ""
}
