package util

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestContains(t *testing.T) {
	statuses := []string{"SCHEDULED", "CONFIRMED", "COMPLETED"}
	if !Contains("CONFIRMED", statuses) {
		t.Fatalf("expected Contains to return true for existing item")
	}
	if Contains("NO_SHOW", statuses) {
		t.Fatalf("expected Contains to return false for missing item")
	}
	if Contains("SCHEDULED", nil) {
		t.Fatalf("expected Contains to return false for nil list")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trim leading whitespace", "  Laura Restrepo", "Laura Restrepo"},
		{"trim trailing whitespace", "Laura Restrepo  ", "Laura Restrepo"},
		{"collapse internal spaces", "Laura    Restrepo", "Laura Restrepo"},
		{"trim and collapse combined", "  Laura   Restrepo  ", "Laura Restrepo"},
		{"already normalized", "Laura Restrepo", "Laura Restrepo"},
		{"empty string", "", ""},
		{"only whitespace", "   ", ""},
		{"tabs and newlines", "Laura\t\nRestrepo", "Laura Restrepo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCallHelpers_StatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		call func(c *gin.Context)
		want int
	}{
		{"success", func(c *gin.Context) { CallSuccessOK(c, APISuccessParams{Msg: "ok"}) }, 200},
		{"user error", func(c *gin.Context) { CallUserError(c, APIErrorParams{Msg: "bad"}) }, 400},
		{"not authorized", func(c *gin.Context) { CallUserNotAuthorized(c, APIErrorParams{Msg: "no"}) }, 401},
		{"not found", func(c *gin.Context) { CallErrorNotFound(c, APIErrorParams{Msg: "missing"}) }, 404},
		{"conflict", func(c *gin.Context) { CallUserConflict(c, APIErrorParams{Msg: "dup"}) }, 409},
		{"server error", func(c *gin.Context) { CallServerError(c, APIErrorParams{Msg: "boom"}) }, 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tc.call(c)
			if w.Code != tc.want {
				t.Errorf("got status %d, want %d", w.Code, tc.want)
			}
		})
	}
}
