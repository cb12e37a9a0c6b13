package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"decision-hub/internal/auth"
	"decision-hub/internal/config"

	"github.com/google/uuid"
)

// TestJWTSecret is the HMAC secret shared by AuthHelper and the services under test
const TestJWTSecret = "test-secret-key-for-testing-only"

// AuthHelper provides JWT token generation for tests
type AuthHelper struct {
	Service *auth.Service
}

// NewAuthHelper creates a new auth helper
func NewAuthHelper() *AuthHelper {
	return &AuthHelper{
		Service: auth.NewService(&config.JWTConfig{Secret: TestJWTSecret, Expiration: time.Hour}),
	}
}

// GenerateToken generates a JWT token for a user
func (h *AuthHelper) GenerateToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	token, err := h.Service.GenerateToken(userID, "")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

// CreateAuthenticatedRequest creates a request with auth header. body is JSON-encoded
// unless it is nil.
func (h *AuthHelper) CreateAuthenticatedRequest(t *testing.T, method, url string, userID uuid.UUID, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+h.GenerateToken(t, userID))
	return req
}

// TestResponse holds response data for assertions
type TestResponse struct {
	*httptest.ResponseRecorder
}

// NewTestResponse creates a new test response recorder
func NewTestResponse() *TestResponse {
	return &TestResponse{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

// AssertStatus asserts the HTTP status code
func (r *TestResponse) AssertStatus(t *testing.T, expected int) {
	t.Helper()

	if r.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, r.Code, r.Body.String())
	}
}

// AssertStatusOK asserts 200 OK
func (r *TestResponse) AssertStatusOK(t *testing.T) {
	r.AssertStatus(t, http.StatusOK)
}

// AssertStatusCreated asserts 201 Created
func (r *TestResponse) AssertStatusCreated(t *testing.T) {
	r.AssertStatus(t, http.StatusCreated)
}

// AssertStatusForbidden asserts 403 Forbidden
func (r *TestResponse) AssertStatusForbidden(t *testing.T) {
	r.AssertStatus(t, http.StatusForbidden)
}

// AssertStatusNotFound asserts 404 Not Found
func (r *TestResponse) AssertStatusNotFound(t *testing.T) {
	r.AssertStatus(t, http.StatusNotFound)
}

// AssertStatusBadRequest asserts 400 Bad Request
func (r *TestResponse) AssertStatusBadRequest(t *testing.T) {
	r.AssertStatus(t, http.StatusBadRequest)
}

// DecodeJSON decodes the response body into v
func (r *TestResponse) DecodeJSON(t *testing.T, v any) {
	t.Helper()

	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", r.Body.String(), err)
	}
}
