package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestRequireUserAcceptsValidHeader(t *testing.T) {
	e := echo.New()
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
	req.Header.Set(userIDHeader, userID.String())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := RequireUser()(func(c echo.Context) error {
		called = true
		got, ok := CurrentUserID(c)
		if !ok {
			t.Fatal("expected user id in context")
		}
		if got != userID {
			t.Fatalf("expected %s, got %s", userID, got)
		}
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !called {
		t.Fatal("expected next handler to run")
	}
}

func TestRequireUserRejectsMissingOrBadHeader(t *testing.T) {
	e := echo.New()
	for _, header := range []string{"", "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
		if header != "" {
			req.Header.Set(userIDHeader, header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := RequireUser()(func(c echo.Context) error {
			t.Fatalf("next handler must not run for header %q", header)
			return nil
		})
		if err := handler(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for header %q, got %d", header, rec.Code)
		}
	}
}

func TestPaginationParams(t *testing.T) {
	e := echo.New()
	cases := []struct {
		query   string
		page    int
		perPage int
	}{
		{"", 1, 20},
		{"page=3&per_page=10", 3, 10},
		{"page=-1&per_page=0", 1, 20},
		{"per_page=500", 1, 100},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		page, perPage := paginationParams(c)
		if page != tc.page || perPage != tc.perPage {
			t.Errorf("query %q: got page=%d per_page=%d, want page=%d per_page=%d",
				tc.query, page, perPage, tc.page, tc.perPage)
		}
	}
}

func TestParseOptionalDate(t *testing.T) {
	empty := "  "
	if got, err := parseOptionalDate(&empty); err != nil || got != nil {
		t.Fatalf("blank date: got %v, %v", got, err)
	}

	valid := "2026-11-20"
	got, err := parseOptionalDate(&valid)
	if err != nil {
		t.Fatalf("valid date returned error: %v", err)
	}
	if got == nil || got.Format("2006-01-02") != valid {
		t.Fatalf("expected %s, got %v", valid, got)
	}

	bad := "20/11/2026"
	if _, err := parseOptionalDate(&bad); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
