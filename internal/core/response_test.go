package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coursehub/internal/types"
)

// --- JSON helper tests ---

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]string{"id": "course_1"}})

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	dataMap, ok := body.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected data to be a map, got %T", body.Data)
	}
	if dataMap["id"] != "course_1" {
		t.Errorf("expected id=course_1, got %v", dataMap["id"])
	}
}

// --- Error helper tests ---

func TestError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, types.NewAppError(types.ErrCodeNotFoundPurchase, "purchase not found", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}

	var body APIErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeNotFoundPurchase) {
		t.Errorf("expected code %s, got %s", types.ErrCodeNotFoundPurchase, body.Error.Code)
	}
	if body.Error.Message != "purchase not found" {
		t.Errorf("unexpected message: %s", body.Error.Message)
	}
}

func TestError_WrappedAppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	inner := types.NewAppError(types.ErrCodeUpstreamUnavailable, "stripe unavailable", nil)
	Error(w, r, errors.Join(errors.New("creating session"), inner))

	if w.Result().StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Result().StatusCode)
	}
}

func TestError_GenericErrorDoesNotLeak(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, errors.New("pq: password authentication failed for user postgres"))

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", resp.StatusCode)
	}

	var body APIErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("expected code %s, got %s", types.ErrCodeInternalUnexpected, body.Error.Code)
	}
	if strings.Contains(body.Error.Message, "postgres") {
		t.Errorf("error message leaked internal details: %s", body.Error.Message)
	}
}

func TestError_DetailsAreIncluded(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, types.NewAppErrorWithDetails(
		types.ErrCodePaymentDeclined,
		"payment declined",
		nil,
		map[string]any{"decline_code": "insufficient_funds"},
	))

	resp := w.Result()
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("expected status 402, got %d", resp.StatusCode)
	}

	var body APIErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Details["decline_code"] != "insufficient_funds" {
		t.Errorf("expected decline_code detail, got %v", body.Error.Details)
	}
}

// --- DecodeJSON tests ---

type decodeTarget struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
}

func decodeRequest(body string) (*httptest.ResponseRecorder, *http.Request) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return w, r
}

func TestDecodeJSON_Valid(t *testing.T) {
	w, r := decodeRequest(`{"user_id": "user_1", "course_id": "course_1"}`)

	var dst decodeTarget
	if err := DecodeJSON(w, r, &dst); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if dst.UserID != "user_1" || dst.CourseID != "course_1" {
		t.Errorf("unexpected decode result: %+v", dst)
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "syntax error", body: `{"user_id": `},
		{name: "unknown field", body: `{"user_id": "u", "extra": true}`},
		{name: "empty body", body: ``},
		{name: "multiple values", body: `{"user_id": "u"}{"user_id": "v"}`},
		{name: "wrong type", body: `{"user_id": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, r := decodeRequest(tt.body)

			var dst decodeTarget
			err := DecodeJSON(w, r, &dst)
			if err == nil {
				t.Fatal("expected an error")
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *types.AppError, got %T", err)
			}
			if appErr.Code != errCodeValidationInvalidJSON {
				t.Errorf("expected code %s, got %s", errCodeValidationInvalidJSON, appErr.Code)
			}
			if appErr.HTTPStatus() != http.StatusBadRequest {
				t.Errorf("expected 400 mapping, got %d", appErr.HTTPStatus())
			}
		})
	}
}
