package analyses

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/web/views"
)

type fakeBackend struct {
	analysis  gateway.SavedAnalysis
	getErr    error
	deleteErr error
	deleted   []string
}

func (f *fakeBackend) GetAnalysis(_ context.Context, id string) (gateway.SavedAnalysis, error) {
	if f.getErr != nil {
		return gateway.SavedAnalysis{}, f.getErr
	}
	a := f.analysis
	a.ID = id
	return a, nil
}

func (f *fakeBackend) DeleteAnalysis(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func newTestRouter(backend Backend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(views.Must())
	NewHandler(backend).RegisterRoutes(r)
	return r
}

func sampleAnalysis() gateway.SavedAnalysis {
	var a gateway.SavedAnalysis
	a.JobPost.Title = "Backend Engineer"
	a.JobPost.Company = "Acme"
	a.JobPost.ParsedData.RequiredSkills = gateway.List{"Go", "Kubernetes"}
	a.Resume.ParsedData.Skills = gateway.List{"golang", "Go"}
	a.SkillScore = 72
	a.SkillGap.Missing = gateway.List{"Kubernetes"}
	return a
}

func TestGetAnalysisRenders(t *testing.T) {
	r := newTestRouter(&fakeBackend{analysis: sampleAnalysis()})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses/a1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Backend Engineer", "72%", "Good", `action="/analyses/a1"`, "tone-good"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body", want)
		}
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	r := newTestRouter(&fakeBackend{getErr: &gateway.APIError{Op: "get", Status: http.StatusNotFound}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgNotFound) {
		t.Fatalf("expected not found page, got %s", rec.Body.String())
	}
}

func TestGetAnalysisBackendFailure(t *testing.T) {
	r := newTestRouter(&fakeBackend{getErr: &gateway.NetworkError{Op: "get", Err: errors.New("refused")}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses/a1", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgLoadFailed) {
		t.Fatalf("expected load failure message, got %s", rec.Body.String())
	}
}

func TestDeleteRedirectsToDashboard(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRouter(backend)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyses/a1", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != AfterDeletePath {
		t.Fatalf("unexpected location %q", loc)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "a1" {
		t.Fatalf("unexpected deletes %v", backend.deleted)
	}
}

func TestDeleteFailureKeepsAnalysisOnScreen(t *testing.T) {
	backend := &fakeBackend{analysis: sampleAnalysis(), deleteErr: &gateway.APIError{Op: "delete", Status: 500}}
	r := newTestRouter(backend)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyses/a1", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, msgDeleteFailed) || !strings.Contains(body, "Backend Engineer") {
		t.Fatalf("unexpected body %s", body)
	}
}
