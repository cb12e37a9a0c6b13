package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"decision-hub/internal/apperror"
	"decision-hub/internal/models"

	"github.com/google/uuid"
)

func TestJSONResponseNormalizesNilSlices(t *testing.T) {
	type payload struct {
		Options  []models.Option            `json:"options"`
		ByUser   map[uuid.UUID][]string     `json:"by_user"`
		Nested   *struct{ Items []int }     `json:"nested"`
		Deadline *time.Time                 `json:"deadline"`
		Created  time.Time                  `json:"created"`
		Weights  map[uuid.UUID]float64      `json:"weights"`
		Lists    [][]string                 `json:"lists"`
		Scores   map[string][]models.Weight `json:"scores"`
	}

	user := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	data := payload{
		ByUser:  map[uuid.UUID][]string{user: nil},
		Nested:  &struct{ Items []int }{},
		Created: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Lists:   [][]string{nil},
	}

	w := httptest.NewRecorder()
	if err := JSONResponse(w, data); err != nil {
		t.Fatalf("JSONResponse failed: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{
		`"options":[]`,
		`"by_user":{"11111111-1111-1111-1111-111111111111":[]}`,
		`"nested":{"Items":[]}`,
		`"deadline":null`,
		`"created":"2026-01-02T03:04:05Z"`,
		`"weights":{}`,
		`"lists":[[]]`,
		`"scores":{}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %s in %s", want, body)
		}
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		expected string
	}{
		{apperror.Validation("name is required"), http.StatusBadRequest, `{"error":"name is required","code":"validation"}`},
		{apperror.NoAccess("no"), http.StatusForbidden, `"code":"no_access"`},
		{apperror.NotFound("decision not found"), http.StatusNotFound, `"code":"not_found"`},
		{apperror.Locked("decision deadline has passed"), http.StatusLocked, `"code":"locked"`},
		{apperror.OracleFailure(errors.New("timeout"), "AI evaluation failed"), http.StatusBadGateway, `"code":"oracle_failure"`},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"internal server error","code":"storage_failure"}`},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondError(w, httptest.NewRequest(http.MethodGet, "/api/v1/decisions", nil), tt.err)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expected) {
				t.Errorf("Expected body to contain %s, got %s", tt.expected, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "pq:") {
				t.Error("Storage errors must not leak to clients")
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"mode":"ai"}`, 0},
		{"malformed", `{"mode":`, http.StatusBadRequest},
		{"validation", `{"mode":"auto"}`, http.StatusBadRequest},
		{"missing", `{}`, http.StatusBadRequest},
		{"too large", `{"mode":"` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(tt.body))

			var req ChangeModeRequest
			ok := decodeJSON(w, r, &req)
			if tt.status == 0 {
				if !ok || req.Mode != "ai" {
					t.Errorf("Expected successful decode, got %d %s", w.Code, w.Body.String())
				}
				return
			}
			if ok || w.Code != tt.status {
				t.Errorf("Expected status %d, got ok=%v status=%d", tt.status, ok, w.Code)
			}
		})
	}
}
