// Package wizard holds the three-step resume analysis flow for one browser session.
package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/preview"
	"fitcheck-web/internal/results"
	"fitcheck-web/internal/shared/metrics"
	"fitcheck-web/internal/shared/storage/object"
	"fitcheck-web/internal/shared/telemetry"
)

// Step is a wizard state.
type Step int

const (
	StepAwaitingFile Step = iota
	StepAwaitingDescription
	StepReviewing
)

func (s Step) String() string {
	switch s {
	case StepAwaitingFile:
		return "awaiting_file"
	case StepAwaitingDescription:
		return "awaiting_description"
	case StepReviewing:
		return "reviewing"
	default:
		return "unknown"
	}
}

// Number is the 1-based position shown in the progress indicator.
func (s Step) Number() int {
	return int(s) + 1
}

var (
	ErrRequestInFlight   = errors.New("an analysis request is already in flight")
	ErrStale             = errors.New("wizard changed while the request was running")
	ErrInvalidTransition = errors.New("action not allowed in the current step")
	ErrExportUnavailable = errors.New("no analysis result to export")
)

// Analyzer submits a resume and job description for analysis.
type Analyzer interface {
	AnalyzeResume(ctx context.Context, file gateway.ResumeFile, jobDescription string) (results.AnalysisResult, error)
}

// Options configures a Wizard.
type Options struct {
	Store               object.ObjectStore
	Analyzer            Analyzer
	MaxUploadBytes      int64
	MinDescriptionChars int
}

// FileRef points at the spooled resume blob.
type FileRef struct {
	Key        string
	Name       string
	MimeType   string
	Size       int64
	Preview    preview.Summary
	HasPreview bool
}

// State is a consistent copy of the wizard for rendering.
type State struct {
	Step        Step
	File        *FileRef
	Description string
	View        *results.View
	InFlight    bool
	Banner      string
	MinChars    int
	MaxBytes    int64
}

// CanExport reports whether the export action is enabled.
func (s State) CanExport() bool {
	return s.View != nil && !s.InFlight
}

// Wizard is the upload flow for one session. Safe for concurrent use; the
// backend call runs without holding the lock.
type Wizard struct {
	owner string
	opts  Options

	mu          sync.Mutex
	step        Step
	file        *FileRef
	description string
	result      *results.AnalysisResult
	inFlight    bool
	cancel      context.CancelFunc
	generation  uint64
	banner      string
	closed      bool
}

// New creates a wizard in the AwaitingFile step. Owner namespaces spooled blobs.
func New(owner string, opts Options) *Wizard {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.MinDescriptionChars < 0 {
		opts.MinDescriptionChars = 0
	}
	return &Wizard{owner: owner, opts: opts}
}

// SelectFile validates and spools the chosen file, then moves to AwaitingDescription.
func (w *Wizard) SelectFile(ctx context.Context, in FileInput) error {
	mimeType, err := ValidateFile(in, w.opts.MaxUploadBytes)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrStale
	}
	if w.step != StepAwaitingFile {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	gen := w.generation
	w.mu.Unlock()

	obj, err := w.opts.Store.Save(ctx, w.owner, in.Name, bytes.NewReader(in.Data))
	if err != nil {
		return fmt.Errorf("spool resume: %w", err)
	}
	ref := &FileRef{Key: obj.Key, Name: in.Name, MimeType: mimeType, Size: obj.Size}
	if summary, err := preview.Summarize(ctx, in.Data, mimeType); err == nil {
		ref.Preview, ref.HasPreview = summary, true
	}

	w.mu.Lock()
	if w.closed || w.generation != gen || w.step != StepAwaitingFile {
		w.mu.Unlock()
		w.deleteBlob(ctx, obj.Key)
		return ErrStale
	}
	w.file = ref
	w.transition(StepAwaitingDescription)
	w.mu.Unlock()
	return nil
}

// SubmitDescription stores the job description and moves to Reviewing.
func (w *Wizard) SubmitDescription(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepAwaitingDescription || w.file == nil {
		return ErrInvalidTransition
	}
	trimmed, err := validateDescription(text, w.opts.MinDescriptionChars)
	if err != nil {
		return err
	}
	w.description = trimmed
	w.result = nil
	w.banner = ""
	w.transition(StepReviewing)
	return nil
}

// Back returns to AwaitingFile and discards the selected file.
func (w *Wizard) Back(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepAwaitingDescription {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	key := w.takeFileKey()
	w.transition(StepAwaitingFile)
	w.mu.Unlock()

	w.deleteBlob(ctx, key)
	return nil
}

// EditDescription leaves Reviewing for AwaitingDescription and drops the result.
func (w *Wizard) EditDescription() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepReviewing {
		return ErrInvalidTransition
	}
	w.result = nil
	w.banner = ""
	w.transition(StepAwaitingDescription)
	return nil
}

// EnsureResult runs an analysis unless one is already cached for the current draft.
func (w *Wizard) EnsureResult(ctx context.Context) error {
	return w.analyze(ctx, false)
}

// Reanalyze always issues a new analysis request.
func (w *Wizard) Reanalyze(ctx context.Context) error {
	return w.analyze(ctx, true)
}

func (w *Wizard) analyze(ctx context.Context, force bool) error {
	w.mu.Lock()
	if w.step != StepReviewing {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if w.inFlight {
		w.mu.Unlock()
		return ErrRequestInFlight
	}
	if !force && w.result != nil {
		w.mu.Unlock()
		return nil
	}
	if w.file == nil {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if _, err := validateDescription(w.description, w.opts.MinDescriptionChars); err != nil {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	reqCtx, cancel := context.WithCancel(ctx)
	w.inFlight = true
	w.cancel = cancel
	w.banner = ""
	gen := w.generation
	file := *w.file
	description := w.description
	w.mu.Unlock()

	res, err := w.runAnalysis(reqCtx, file, description)
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.generation != gen {
		telemetry.Info("wizard.result_discarded", map[string]any{"owner": w.owner})
		return ErrStale
	}
	w.inFlight = false
	w.cancel = nil
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.banner = gateway.UserMessage(err)
		}
		return err
	}
	w.result = &res
	return nil
}

func (w *Wizard) runAnalysis(ctx context.Context, file FileRef, description string) (results.AnalysisResult, error) {
	body, err := w.opts.Store.Open(ctx, file.Key)
	if err != nil {
		return results.AnalysisResult{}, fmt.Errorf("open spooled resume: %w", err)
	}
	defer body.Close()

	return w.opts.Analyzer.AnalyzeResume(ctx, gateway.ResumeFile{
		Name:     file.Name,
		MimeType: file.MimeType,
		Size:     file.Size,
		Body:     body,
	}, description)
}

// Export returns the cached result as a downloadable JSON document.
func (w *Wizard) Export() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil || w.inFlight {
		return nil, ErrExportUnavailable
	}
	return results.Export(*w.result)
}

// RemoveKeyword drops a keyword from the cached result. Only a new analysis brings it back.
func (w *Wizard) RemoveKeyword(kind results.KeywordKind, keyword string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return false
	}
	return w.result.RemoveKeyword(kind, keyword)
}

// Banner returns the pending failure message, if any.
func (w *Wizard) Banner() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.banner
}

// DismissBanner clears the failure message.
func (w *Wizard) DismissBanner() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.banner = ""
}

// InFlight reports whether an analysis request is outstanding.
func (w *Wizard) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Reset clears the draft, result and banner and deletes the spooled file.
func (w *Wizard) Reset(ctx context.Context) {
	w.mu.Lock()
	key := w.takeFileKey()
	w.description = ""
	w.result = nil
	w.banner = ""
	w.transition(StepAwaitingFile)
	w.mu.Unlock()

	w.deleteBlob(ctx, key)
}

// Close resets the wizard and refuses further uploads. Callers that still hold
// it after its session ended get ErrStale instead of spooling an orphan blob.
func (w *Wizard) Close(ctx context.Context) {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.Reset(ctx)
}

// Snapshot copies the wizard state and renders the cached result.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := State{
		Step:        w.step,
		Description: w.description,
		InFlight:    w.inFlight,
		Banner:      w.banner,
		MinChars:    w.opts.MinDescriptionChars,
		MaxBytes:    w.opts.MaxUploadBytes,
	}
	if w.file != nil {
		ref := *w.file
		state.File = &ref
	}
	if w.result != nil {
		view := results.Render(*w.result)
		state.View = &view
	}
	return state
}

// transition moves to step and invalidates any outstanding request. Callers hold mu.
func (w *Wizard) transition(step Step) {
	w.generation++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.inFlight = false
	if w.step != step {
		metrics.IncWizardTransition(step.String())
	}
	w.step = step
}

// takeFileKey detaches the file and returns its blob key. Callers hold mu.
func (w *Wizard) takeFileKey() string {
	if w.file == nil {
		return ""
	}
	key := w.file.Key
	w.file = nil
	w.result = nil
	return key
}

func (w *Wizard) deleteBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := w.opts.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Warn("wizard.blob_delete_failed", map[string]any{"key": key, "error": err})
	}
}
