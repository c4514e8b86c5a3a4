package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/results"
	"fitcheck-web/internal/shared/server/middleware"
	"fitcheck-web/internal/shared/server/respond"
	"fitcheck-web/internal/shared/telemetry"
	"fitcheck-web/internal/web/views"
	"fitcheck-web/internal/wizard"
)

const (
	analyzePath = "/analyze"

	// multipart framing allowance on top of the file limit
	formOverhead = 1 << 20

	msgNothingToExport = "There is no analysis to export yet."
	msgExportFailed    = "The analysis could not be exported. Please try again."
)

// Wizards hands out the wizard for a session.
type Wizards interface {
	Get(sessionID string) *wizard.Wizard
}

// Analyze serves the resume analysis wizard.
type Analyze struct {
	wizards  Wizards
	maxBytes int64
}

// NewAnalyze constructs Analyze.
func NewAnalyze(wizards Wizards, maxUploadBytes int64) *Analyze {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Analyze{wizards: wizards, maxBytes: maxUploadBytes}
}

// AnalyzeRoutes are the POST routes that reach the analysis backend.
var AnalyzeRoutes = []string{analyzePath + "/description", analyzePath + "/reanalyze"}

// RegisterRoutes attaches the wizard routes. They must sit behind guard.Require.
func (a *Analyze) RegisterRoutes(r gin.IRoutes) {
	r.GET(analyzePath, a.show)
	r.POST(analyzePath+"/file", a.selectFile)
	r.POST(analyzePath+"/description", a.submitDescription)
	r.POST(analyzePath+"/back", a.back)
	r.POST(analyzePath+"/edit", a.edit)
	r.POST(analyzePath+"/reanalyze", a.reanalyze)
	r.POST(analyzePath+"/keywords/remove", a.removeKeyword)
	r.POST(analyzePath+"/banner/dismiss", a.dismissBanner)
	r.POST(analyzePath+"/reset", a.reset)
	r.GET(analyzePath+"/export", a.export)
}

type analyzeData struct {
	State       wizard.State
	FieldError  string
	Description string
	ExportError string
}

func (a *Analyze) wizard(c *gin.Context) *wizard.Wizard {
	return a.wizards.Get(middleware.SessionIDFromContext(c))
}

func (a *Analyze) render(c *gin.Context, status int, w *wizard.Wizard, data analyzeData) {
	data.State = w.Snapshot()
	c.Set(middleware.WizardStepKey, data.State.Step.String())
	page := views.For(c, "Analyze resume", "analyze")
	page.Data = data
	c.HTML(status, "analyze", page)
}

func (a *Analyze) backToWizard(c *gin.Context, w *wizard.Wizard) {
	c.Set(middleware.WizardStepKey, w.Step().String())
	c.Redirect(http.StatusSeeOther, analyzePath)
}

func (a *Analyze) show(c *gin.Context) {
	a.render(c, http.StatusOK, a.wizard(c), analyzeData{})
}

func (a *Analyze) selectFile(c *gin.Context) {
	w := a.wizard(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxBytes+formOverhead)

	header, err := c.FormFile("resume")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			a.render(c, http.StatusRequestEntityTooLarge, w, analyzeData{FieldError: wizard.TooLarge(a.maxBytes).Message})
			return
		}
		a.render(c, http.StatusUnprocessableEntity, w, analyzeData{FieldError: wizard.MissingFile().Message})
		return
	}
	if header.Size > a.maxBytes {
		a.render(c, http.StatusRequestEntityTooLarge, w, analyzeData{FieldError: wizard.TooLarge(a.maxBytes).Message})
		return
	}

	file, err := header.Open()
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "validation_error", "unable to read file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, a.maxBytes+1))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "validation_error", "unable to read file")
		return
	}

	err = w.SelectFile(c.Request.Context(), wizard.FileInput{
		Name:         header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Data:         data,
	})
	var vErr *wizard.ValidationError
	switch {
	case err == nil, errors.Is(err, wizard.ErrInvalidTransition), errors.Is(err, wizard.ErrStale):
		a.backToWizard(c, w)
	case errors.As(err, &vErr):
		a.render(c, http.StatusUnprocessableEntity, w, analyzeData{FieldError: vErr.Message})
	default:
		telemetry.Error("wizard.select_file_failed", map[string]any{"error": err, "request_id": c.GetString("requestId")})
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "We could not store your file. Please try again.")
	}
}

func (a *Analyze) submitDescription(c *gin.Context) {
	w := a.wizard(c)
	text := c.PostForm("description")
	err := w.SubmitDescription(text)
	var vErr *wizard.ValidationError
	switch {
	case errors.As(err, &vErr):
		a.render(c, http.StatusUnprocessableEntity, w, analyzeData{FieldError: vErr.Message, Description: text})
		return
	case err != nil:
		a.backToWizard(c, w)
		return
	}
	a.runAnalysis(c, w, w.EnsureResult(c.Request.Context()))
}

func (a *Analyze) reanalyze(c *gin.Context) {
	w := a.wizard(c)
	a.runAnalysis(c, w, w.Reanalyze(c.Request.Context()))
}

// runAnalysis logs unexpected outcomes; the wizard already holds the banner.
func (a *Analyze) runAnalysis(c *gin.Context, w *wizard.Wizard, err error) {
	if err != nil && !errors.Is(err, wizard.ErrRequestInFlight) && !errors.Is(err, wizard.ErrStale) && !errors.Is(err, wizard.ErrInvalidTransition) {
		telemetry.Warn("wizard.analysis_failed", map[string]any{"error": err, "request_id": c.GetString("requestId")})
	}
	a.backToWizard(c, w)
}

func (a *Analyze) back(c *gin.Context) {
	w := a.wizard(c)
	_ = w.Back(c.Request.Context())
	a.backToWizard(c, w)
}

func (a *Analyze) edit(c *gin.Context) {
	w := a.wizard(c)
	_ = w.EditDescription()
	a.backToWizard(c, w)
}

func (a *Analyze) removeKeyword(c *gin.Context) {
	w := a.wizard(c)
	if kind, ok := results.ParseKeywordKind(c.PostForm("kind")); ok {
		w.RemoveKeyword(kind, strings.TrimSpace(c.PostForm("keyword")))
	}
	a.backToWizard(c, w)
}

func (a *Analyze) dismissBanner(c *gin.Context) {
	w := a.wizard(c)
	w.DismissBanner()
	a.backToWizard(c, w)
}

func (a *Analyze) reset(c *gin.Context) {
	w := a.wizard(c)
	w.Reset(c.Request.Context())
	a.backToWizard(c, w)
}

func (a *Analyze) export(c *gin.Context) {
	w := a.wizard(c)
	body, err := w.Export()
	if err != nil {
		if errors.Is(err, wizard.ErrExportUnavailable) {
			a.render(c, http.StatusConflict, w, analyzeData{ExportError: msgNothingToExport})
			return
		}
		telemetry.Error("wizard.export_failed", map[string]any{"error": err})
		a.render(c, http.StatusInternalServerError, w, analyzeData{ExportError: msgExportFailed})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+results.ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json", body)
}
