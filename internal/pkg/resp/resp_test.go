package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tcpchat/internal/pkg/errs"
)

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondSuccess(rec, req, map[string]int{"answer": 42})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type %q, want application/json", ct)
	}

	var body JSONResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != 0 || body.Message != "success" {
		t.Fatalf("body code=%d message=%q, want success", body.Code, body.Message)
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(rec, req, errs.NewError(errs.ErrRateLimitExceeded))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	var body JSONResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != errs.ErrRateLimitExceeded {
		t.Fatalf("body code %d, want %d", body.Code, errs.ErrRateLimitExceeded)
	}
}

func TestRespondErrorNilFallsBack(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(rec, req, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
