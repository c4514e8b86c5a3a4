// Package gateway is the HTTP client for the analysis backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"fitcheck-web/internal/results"
	"fitcheck-web/internal/shared/metrics"
	"fitcheck-web/internal/shared/telemetry"
)

const (
	defaultTimeout   = 120 * time.Second
	maxErrorBodySize = 1 << 20
	maxBodySize      = 16 << 20
)

// Paths are the backend endpoints, relative to the base URL.
type Paths struct {
	Jobs     string
	Resumes  string
	Analyze  string
	Scrape   string
	Compare  string
	Analyses string
	Health   string
}

// DefaultPaths returns the endpoints the backend serves out of the box.
func DefaultPaths() Paths {
	return Paths{
		Jobs:     "/api/jobs",
		Resumes:  "/api/resumes",
		Analyze:  "/api/analyze",
		Scrape:   "/api/scrape",
		Compare:  "/api/compare",
		Analyses: "/api/analyses",
		Health:   "/api/health",
	}
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Paths      Paths
	HTTPClient *http.Client
}

// Client talks to the backend. It never retries.
type Client struct {
	baseURL    string
	paths      Paths
	httpClient *http.Client
}

// NewClient constructs a Client. Empty paths fall back to DefaultPaths.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}

	paths := cfg.Paths
	defaults := DefaultPaths()
	fill := func(p *string, def string) {
		if strings.TrimSpace(*p) == "" {
			*p = def
		}
	}
	fill(&paths.Jobs, defaults.Jobs)
	fill(&paths.Resumes, defaults.Resumes)
	fill(&paths.Analyze, defaults.Analyze)
	fill(&paths.Scrape, defaults.Scrape)
	fill(&paths.Compare, defaults.Compare)
	fill(&paths.Analyses, defaults.Analyses)
	fill(&paths.Health, defaults.Health)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: base, paths: paths, httpClient: httpClient}, nil
}

// AnalyzeResume submits the resume and job description for analysis.
func (c *Client) AnalyzeResume(ctx context.Context, file ResumeFile, jobDescription string) (results.AnalysisResult, error) {
	const op = "analyze"
	body, contentType, err := multipartBody(file, map[string]string{"job_description": jobDescription})
	if err != nil {
		return results.AnalysisResult{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	raw, status, err := c.do(ctx, op, http.MethodPost, c.paths.Analyze, contentType, body)
	if err != nil {
		return results.AnalysisResult{}, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return results.AnalysisResult{}, &APIError{Op: op, Status: status}
	}
	return results.Decode(trimmed), nil
}

// UploadResume stores a resume with the backend.
func (c *Client) UploadResume(ctx context.Context, file ResumeFile) (ResumeAck, error) {
	const op = "upload_resume"
	body, contentType, err := multipartBody(file, nil)
	if err != nil {
		return ResumeAck{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	raw, status, err := c.do(ctx, op, http.MethodPost, c.paths.Resumes, contentType, body)
	if err != nil {
		return ResumeAck{}, err
	}
	var ack ResumeAck
	return ack, decodeOptional(op, status, raw, &ack)
}

// CreateJobPost stores a job post with the backend.
func (c *Client) CreateJobPost(ctx context.Context, post JobPost) (JobPostAck, error) {
	const op = "create_job_post"
	raw, status, err := c.doJSON(ctx, op, http.MethodPost, c.paths.Jobs, post)
	if err != nil {
		return JobPostAck{}, err
	}
	var ack JobPostAck
	return ack, decodeOptional(op, status, raw, &ack)
}

// ScrapeProfile fetches a LinkedIn profile through the backend scraper.
func (c *Client) ScrapeProfile(ctx context.Context, profileURL string) (Profile, error) {
	const op = "scrape_profile"
	raw, status, err := c.doJSON(ctx, op, http.MethodPost, c.paths.Scrape, map[string]string{"url": profileURL})
	if err != nil {
		return Profile{}, err
	}
	var profile Profile
	if err := decodeRequired(op, status, raw, &profile); err != nil {
		return Profile{}, err
	}
	profile.Raw = append(json.RawMessage(nil), bytes.TrimSpace(raw)...)
	return profile, nil
}

// CompareProfiles asks the backend to compare two profiles for a role.
func (c *Client) CompareProfiles(ctx context.Context, req CompareRequest) (Comparison, error) {
	const op = "compare_profiles"
	raw, status, err := c.doJSON(ctx, op, http.MethodPost, c.paths.Compare, req)
	if err != nil {
		return Comparison{}, err
	}
	var out Comparison
	if err := decodeRequired(op, status, raw, &out); err != nil {
		return Comparison{}, err
	}
	return out, nil
}

// GetAnalysis loads a saved analysis by ID.
func (c *Client) GetAnalysis(ctx context.Context, id string) (SavedAnalysis, error) {
	const op = "get_analysis"
	raw, status, err := c.do(ctx, op, http.MethodGet, c.analysisPath(id), "", nil)
	if err != nil {
		return SavedAnalysis{}, err
	}
	var out SavedAnalysis
	if err := decodeRequired(op, status, raw, &out); err != nil {
		return SavedAnalysis{}, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

// DeleteAnalysis removes a saved analysis by ID.
func (c *Client) DeleteAnalysis(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, "delete_analysis", http.MethodDelete, c.analysisPath(id), "", nil)
	return err
}

// Ping checks that the backend answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.do(ctx, "health", http.MethodGet, c.paths.Health, "", nil)
	return err
}

func (c *Client) analysisPath(id string) string {
	return strings.TrimRight(c.paths.Analyses, "/") + "/" + url.PathEscape(id)
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, method, path, "application/json", bytes.NewReader(data))
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, int, error) {
	start := time.Now()
	metrics.IncGatewayStarted(op)
	raw, status, err := c.roundTrip(ctx, op, method, path, contentType, body)
	elapsed := metrics.SinceMillis(start)
	metrics.ObserveGatewayDurationMs(elapsed)

	fields := map[string]any{
		"op":          op,
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": elapsed,
	}
	if err != nil {
		metrics.IncGatewayFailed()
		fields["error"] = err.Error()
		telemetry.Error("gateway.request_failed", fields)
		return nil, status, err
	}
	metrics.IncGatewaySucceeded()
	telemetry.Info("gateway.request", fields)
	return raw, status, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, resp.StatusCode, &APIError{Op: op, Status: resp.StatusCode, Message: extractMessage(errBody)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, &NetworkError{Op: op, Err: err}
	}
	return raw, resp.StatusCode, nil
}

func decodeRequired(op string, status int, raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &APIError{Op: op, Status: status}
	}
	return nil
}

func decodeOptional(op string, status int, raw []byte, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decodeRequired(op, status, raw, v)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(file ResumeFile, fields map[string]string) (io.Reader, string, error) {
	if file.Body == nil {
		return nil, "", fmt.Errorf("resume body is required")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return nil, "", err
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
