package jobposts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/web/views"
)

type fakeCreator struct {
	calls []gateway.JobPost
	err   error
}

func (f *fakeCreator) CreateJobPost(_ context.Context, post gateway.JobPost) (gateway.JobPostAck, error) {
	f.calls = append(f.calls, post)
	if f.err != nil {
		return gateway.JobPostAck{}, f.err
	}
	return gateway.JobPostAck{ID: "jp_1", Message: "Job post created"}, nil
}

func newTestRouter(backend Creator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(views.Must())
	NewHandler(backend).RegisterRoutes(r)
	return r
}

func postForm(r http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, formPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestShowRendersForm(t *testing.T) {
	r := newTestRouter(&fakeCreator{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, formPath, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="jobUrl"`) {
		t.Fatalf("expected job url field, got %s", rec.Body.String())
	}
}

func TestCreateRequiresFields(t *testing.T) {
	backend := &fakeCreator{}
	r := newTestRouter(backend)
	rec := postForm(r, url.Values{"title": {"Engineer"}, "company": {"  "}, "description": {"Build things"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgRequired) {
		t.Fatalf("expected required message, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `value="Engineer"`) {
		t.Fatalf("expected form values kept")
	}
	if len(backend.calls) != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestCreateRejectsBadJobURL(t *testing.T) {
	backend := &fakeCreator{}
	r := newTestRouter(backend)
	rec := postForm(r, url.Values{
		"title": {"Engineer"}, "company": {"Acme"}, "description": {"Build things"},
		"jobUrl": {"ftp://jobs.example/1"},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestCreateSendsTrimmedPost(t *testing.T) {
	backend := &fakeCreator{}
	r := newTestRouter(backend)
	rec := postForm(r, url.Values{
		"title": {" Engineer "}, "company": {"Acme"}, "description": {"Build things"},
		"jobUrl": {"https://jobs.example/1"},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(backend.calls) != 1 || backend.calls[0].Title != "Engineer" || backend.calls[0].JobURL != "https://jobs.example/1" {
		t.Fatalf("unexpected backend calls %+v", backend.calls)
	}
	if !strings.Contains(rec.Body.String(), "Job post saved.") {
		t.Fatalf("expected success message, got %s", rec.Body.String())
	}
}

func TestCreateBackendFailureKeepsForm(t *testing.T) {
	backend := &fakeCreator{err: &gateway.APIError{Status: 500, Message: "db down"}}
	r := newTestRouter(backend)
	rec := postForm(r, url.Values{"title": {"Engineer"}, "company": {"Acme"}, "description": {"Build things"}})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Failed to create job post. Please try again.") || !strings.Contains(body, `value="Acme"`) {
		t.Fatalf("unexpected body %s", body)
	}
}
