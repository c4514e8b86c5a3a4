package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSetIdentityRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if UserIDFromContext(c) != "" {
		t.Fatalf("expected empty user before SetIdentity")
	}
	SetIdentity(c, "google:123", "sess-1", "Ada")
	if got := UserIDFromContext(c); got != "google:123" {
		t.Fatalf("unexpected user id %q", got)
	}
	if got := SessionIDFromContext(c); got != "sess-1" {
		t.Fatalf("unexpected session id %q", got)
	}
	if got := UserNameFromContext(c); got != "Ada" {
		t.Fatalf("unexpected name %q", got)
	}
	if UserIDFromContext(nil) != "" {
		t.Fatalf("expected nil context to yield empty id")
	}
}
