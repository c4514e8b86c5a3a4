// Package profiles serves the LinkedIn profile lookup and comparison pages.
package profiles

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/shared/telemetry"
	"fitcheck-web/internal/web/views"
)

const (
	scrapePath  = "/profiles/scrape"
	comparePath = "/profiles/compare"

	profilePrefix = "https://www.linkedin.com/in/"

	msgScrapeURL     = "Please enter a valid LinkedIn profile URL (https://www.linkedin.com/in/...)"
	msgUserURL       = "Please enter a valid LinkedIn profile URL for your profile"
	msgReferenceURL  = "Please enter a valid LinkedIn profile URL for the reference profile"
	msgJobRole       = "Please enter a job role"
	msgScrapeFailed  = "Failed to scrape profile"
	msgCompareFailed = "Failed to compare profiles"
)

// Routes are the POST routes that reach the backend.
var Routes = []string{scrapePath, comparePath}

// Backend fetches and compares profiles.
type Backend interface {
	ScrapeProfile(ctx context.Context, profileURL string) (gateway.Profile, error)
	CompareProfiles(ctx context.Context, req gateway.CompareRequest) (gateway.Comparison, error)
}

type Handler struct {
	backend Backend
}

func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend}
}

// RegisterRoutes attaches the profile routes. They must sit behind guard.Require.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(scrapePath, h.showScrape)
	r.POST(scrapePath, h.scrape)
	r.GET(comparePath, h.showCompare)
	r.POST(comparePath, h.compare)
}

type scrapeData struct {
	URL     string
	Profile *gateway.Profile
}

type compareData struct {
	Form   gateway.CompareRequest
	Result *gateway.Comparison
}

func (h *Handler) showScrape(c *gin.Context) {
	h.renderScrape(c, http.StatusOK, scrapeData{}, "")
}

func (h *Handler) scrape(c *gin.Context) {
	data := scrapeData{URL: strings.TrimSpace(c.PostForm("url"))}
	if !IsProfileURL(data.URL) {
		h.renderScrape(c, http.StatusUnprocessableEntity, data, msgScrapeURL)
		return
	}

	profile, err := h.backend.ScrapeProfile(c.Request.Context(), data.URL)
	if err != nil {
		logFailure(c, "profiles.scrape_failed", err)
		h.renderScrape(c, http.StatusBadGateway, data, failureMessage(err, msgScrapeFailed))
		return
	}
	data.Profile = &profile
	h.renderScrape(c, http.StatusOK, data, "")
}

func (h *Handler) showCompare(c *gin.Context) {
	h.renderCompare(c, http.StatusOK, compareData{}, "")
}

func (h *Handler) compare(c *gin.Context) {
	data := compareData{Form: gateway.CompareRequest{
		UserURL:       strings.TrimSpace(c.PostForm("user_url")),
		ReferenceURL:  strings.TrimSpace(c.PostForm("reference_url")),
		JobRole:       strings.TrimSpace(c.PostForm("job_role")),
		TargetCompany: strings.TrimSpace(c.PostForm("target_company")),
	}}
	if msg := validateCompare(data.Form); msg != "" {
		h.renderCompare(c, http.StatusUnprocessableEntity, data, msg)
		return
	}

	result, err := h.backend.CompareProfiles(c.Request.Context(), data.Form)
	if err != nil {
		logFailure(c, "profiles.compare_failed", err)
		h.renderCompare(c, http.StatusBadGateway, data, failureMessage(err, msgCompareFailed))
		return
	}
	data.Result = &result
	h.renderCompare(c, http.StatusOK, data, "")
}

func (h *Handler) renderScrape(c *gin.Context, status int, data scrapeData, errMsg string) {
	page := views.For(c, "LinkedIn profile", "scrape")
	page.Error = errMsg
	page.Data = data
	c.HTML(status, "profiles_scrape", page)
}

func (h *Handler) renderCompare(c *gin.Context, status int, data compareData, errMsg string) {
	page := views.For(c, "Compare profiles", "compare")
	page.Error = errMsg
	page.Data = data
	c.HTML(status, "profiles_compare", page)
}

// IsProfileURL reports whether raw points at a public LinkedIn profile.
func IsProfileURL(raw string) bool {
	return strings.HasPrefix(raw, profilePrefix) && len(raw) > len(profilePrefix)
}

func validateCompare(req gateway.CompareRequest) string {
	switch {
	case !IsProfileURL(req.UserURL):
		return msgUserURL
	case !IsProfileURL(req.ReferenceURL):
		return msgReferenceURL
	case req.JobRole == "":
		return msgJobRole
	}
	return ""
}

// failureMessage prefers the backend's own message and falls back to the page's.
func failureMessage(err error, fallback string) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var netErr *gateway.NetworkError
	if errors.As(err, &netErr) {
		return gateway.NetworkFailureMessage
	}
	return fallback
}

func logFailure(c *gin.Context, msg string, err error) {
	telemetry.Warn(msg, map[string]any{
		"error":      err,
		"request_id": c.GetString("requestId"),
	})
}
