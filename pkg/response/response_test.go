package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := parseResponse(t, w)
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Error != "" {
		t.Errorf("expected empty error, got %q", resp.Error)
	}
}

func TestSuccessWithMeta(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		SuccessWithMeta(c, gin.H{"id": "x"}, gin.H{"processing_time_ms": 12})
	})

	resp := parseResponse(t, w)
	if !resp.Success {
		t.Error("expected success=true")
	}
	meta, ok := resp.Metadata.(map[string]interface{})
	if !ok || meta["processing_time_ms"] != float64(12) {
		t.Errorf("unexpected metadata: %#v", resp.Metadata)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if resp := parseResponse(t, w); !resp.Success {
		t.Error("expected success=true")
	}
}

func TestFail(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Fail(c, "No draft to publish")
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Error != "No draft to publish" {
		t.Errorf("expected error %q, got %q", "No draft to publish", resp.Error)
	}
}

func TestConvenienceErrors(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(*gin.Context, string)
		status int
	}{
		{"bad request", BadRequest, http.StatusBadRequest},
		{"unauthorized", Unauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden, http.StatusForbidden},
		{"not found", NotFound, http.StatusNotFound},
		{"server error", ServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				tt.fn(c, "boom")
			})
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Success || resp.Error != "boom" {
				t.Errorf("unexpected body: %+v", resp)
			}
		})
	}
}

func TestError_WithAppError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, NewConflict("scoring already exists").WithDetails(gin.H{"id": "abc"}))
	})

	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Error != "scoring already exists" {
		t.Errorf("expected error 'scoring already exists', got %q", resp.Error)
	}
	details, ok := resp.Details.(map[string]interface{})
	if !ok || details["id"] != "abc" {
		t.Errorf("unexpected details: %#v", resp.Details)
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("something went wrong"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if resp := parseResponse(t, w); resp.Error != "something went wrong" {
		t.Errorf("expected backend message echoed, got %q", resp.Error)
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(NewForbidden("x")); got != http.StatusForbidden {
		t.Errorf("StatusOf(forbidden) = %d", got)
	}
	if got := StatusOf(errors.New("x")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d", got)
	}
}

func TestAppError_WithDetailsCopies(t *testing.T) {
	base := NewBadRequest("invalid body")
	withDetails := base.WithDetails([]string{"force"})
	if base.Details != nil {
		t.Error("WithDetails should not mutate the receiver")
	}
	if withDetails.Error() != "invalid body" {
		t.Errorf("expected 'invalid body', got %q", withDetails.Error())
	}
}
