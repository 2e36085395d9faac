package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIsValidShareToken(t *testing.T) {
	cases := []struct {
		token string
		valid bool
	}{
		{"shr_0123456789abcdef01234567", true},
		{"shr_0123456789ABCDEF01234567", false}, // uppercase hex not minted
		{"shr_0123456789abcdef0123456", false},  // too short
		{"shr_0123456789abcdef012345678", false},
		{"0123456789abcdef01234567", false}, // missing prefix
		{"shr_0123456789abcdefzzzzzzzz", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := IsValidShareToken(tc.token); got != tc.valid {
			t.Errorf("IsValidShareToken(%q) = %v, want %v", tc.token, got, tc.valid)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 100); got != "hello" {
		t.Errorf("expected trimmed string, got %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Errorf("expected truncated string, got %q", got)
	}
	if got := SanitizeString("a\x00b", 100); got != "ab" {
		t.Errorf("expected null bytes removed, got %q", got)
	}
}

func TestTokenParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/secure-report/:token", TokenParamMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secure-report/shr_0123456789abcdef01234567", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("well formed token rejected with %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secure-report/not-a-token", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed token status = %d, want 400", rec.Code)
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestSizeMiddleware(16))
	router.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("small body status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", rec.Code)
	}
}
