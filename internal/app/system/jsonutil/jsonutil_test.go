package jsonutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"n": 1})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"n":1}` {
		t.Errorf("body = %q", got)
	}
}

func TestJSON_NilData(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusAccepted, nil)
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestErrorShapes(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantKey    string
		wantMsg    string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad") }, http.StatusBadRequest, "error", "bad"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "Review not found") }, http.StatusNotFound, "error", "Review not found"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "oops") }, http.StatusInternalServerError, "error", "oops"},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "no") }, http.StatusForbidden, "error", "no"},
		{"detail", func(w http.ResponseWriter) { Detail(w, http.StatusUnauthorized, "invalid credentials") }, http.StatusUnauthorized, "detail", "invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body[tt.wantKey] != tt.wantMsg {
				t.Errorf("body = %v, want %s=%q", body, tt.wantKey, tt.wantMsg)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"title": "required"})

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusBadRequest || body.Fields["title"] != "required" {
		t.Errorf("got %d %+v", rec.Code, body)
	}
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestDecode(t *testing.T) {
	type input struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"title":"crack in slab"}`, false},
		{"empty", ``, true},
		{"malformed", `{"title":`, true},
		{"unknown field", `{"title":"x","severity":3}`, true},
		{"trailing object", `{"title":"x"}{"title":"y"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in input
			err := Decode(req, &in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && in.Title != "crack in slab" {
				t.Errorf("Title = %q", in.Title)
			}
		})
	}
}
