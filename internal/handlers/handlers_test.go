package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mockery-backend/internal/models"
	"mockery-backend/internal/services"
)

// ─── Stubs ───

type stubPageService struct {
	pages     []models.PageInfo
	page      *models.Page
	version   time.Time
	err       error
	created   string
	deleted   string
	saved     models.SaveRequest
	lastQuery string
}

func (s *stubPageService) List(ctx context.Context) ([]models.PageInfo, error) {
	return s.pages, s.err
}

func (s *stubPageService) Create(ctx context.Context, rawName string) (string, error) {
	s.created = rawName
	return models.SanitizePageName(rawName), s.err
}

func (s *stubPageService) Delete(ctx context.Context, rawName string) error {
	s.deleted = rawName
	return s.err
}

func (s *stubPageService) Get(ctx context.Context, rawName string) (*models.Page, error) {
	s.lastQuery = rawName
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

func (s *stubPageService) Version(ctx context.Context, rawName string) (time.Time, error) {
	s.lastQuery = rawName
	return s.version, s.err
}

func (s *stubPageService) Save(ctx context.Context, req models.SaveRequest) (string, error) {
	s.saved = req
	if s.err != nil {
		return "", s.err
	}
	return "42", nil
}

type stubEditor struct {
	resp   *models.GenerateResponse
	err    error
	events []models.StreamEvent
	got    models.EditRequest
}

func (s *stubEditor) Generate(ctx context.Context, req models.EditRequest) (*models.GenerateResponse, error) {
	s.got = req
	return s.resp, s.err
}

func (s *stubEditor) Stream(ctx context.Context, req models.EditRequest, events chan<- models.StreamEvent) {
	s.got = req
	for _, ev := range s.events {
		events <- ev
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}

// ─── Error mapping ───

func TestHandleServiceError_StatusCodes(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&services.ValidationError{Message: "Brak nazwy strony"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{&services.NotFoundError{Message: "Strona nie istnieje"}, http.StatusNotFound, "NOT_FOUND"},
		{&services.ConflictError{Message: "x"}, http.StatusConflict, "CONFLICT"},
		{&services.RateLimitError{Message: "x"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{&services.UpstreamError{Message: "Błąd API: x"}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{&services.InvalidOutputError{Message: "x"}, http.StatusBadGateway, "INVALID_OUTPUT"},
		{&services.PersistenceError{Message: "x"}, http.StatusInternalServerError, "PERSISTENCE_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "rid-1")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.status {
				t.Fatalf("Expected status %d, got %d", tc.status, rr.Code)
			}
			body := decodeError(t, rr)
			if body.Success {
				t.Error("Expected success=false")
			}
			if body.Code != tc.code {
				t.Errorf("Expected code %q, got %q", tc.code, body.Code)
			}
			if body.RequestID != "rid-1" {
				t.Errorf("Expected request id to be echoed, got %q", body.RequestID)
			}
			if body.Error == "" {
				t.Error("Expected error message")
			}
		})
	}
}

// ─── Page Handler ───

func TestPageHandler_List(t *testing.T) {
	h := NewPageHandler(&stubPageService{pages: []models.PageInfo{{Name: "b", Modified: 2, Size: 10}, {Name: "a", Modified: 1, Size: 5}}})
	rr := httptest.NewRecorder()

	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/pages", nil))

	var body struct {
		Success bool              `json:"success"`
		Pages   []models.PageInfo `json:"pages"`
	}
	json.NewDecoder(rr.Body).Decode(&body)
	if !body.Success || len(body.Pages) != 2 || body.Pages[0].Name != "b" {
		t.Errorf("Unexpected body %+v", body)
	}
}

func TestPageHandler_ListEmptyIsArray(t *testing.T) {
	h := NewPageHandler(&stubPageService{})
	rr := httptest.NewRecorder()

	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/pages", nil))

	if !strings.Contains(rr.Body.String(), `"pages":[]`) {
		t.Errorf("Expected empty array, got %s", rr.Body.String())
	}
}

func TestPageHandler_Action(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"create", `{"action":"create","name":"My Page"}`, http.StatusOK},
		{"delete", `{"action":"delete","name":"demo"}`, http.StatusOK},
		{"unknown action", `{"action":"rename","name":"demo"}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPageService{}
			h := NewPageHandler(svc)
			rr := httptest.NewRecorder()

			h.Action(rr, httptest.NewRequest(http.MethodPost, "/api/pages", strings.NewReader(tc.body)))

			if rr.Code != tc.status {
				t.Fatalf("Expected status %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestPageHandler_CreateReturnsSanitizedName(t *testing.T) {
	h := NewPageHandler(&stubPageService{})
	rr := httptest.NewRecorder()

	h.Action(rr, httptest.NewRequest(http.MethodPost, "/api/pages", strings.NewReader(`{"action":"create","name":"My Page!! 1"}`)))

	var body map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&body)
	if body["name"] != "mypage1" {
		t.Errorf("Expected name 'mypage1', got %v", body["name"])
	}
}

func TestPageHandler_CreateConflict(t *testing.T) {
	h := NewPageHandler(&stubPageService{err: &services.ConflictError{Message: "Strona o tej nazwie już istnieje"}})
	rr := httptest.NewRecorder()

	h.Action(rr, httptest.NewRequest(http.MethodPost, "/api/pages", strings.NewReader(`{"action":"create","name":"demo"}`)))

	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body.Error != "Strona o tej nazwie już istnieje" {
		t.Errorf("Unexpected error %q", body.Error)
	}
}

func TestPageHandler_VersionSetsNoCache(t *testing.T) {
	mod := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	svc := &stubPageService{version: mod}
	h := NewPageHandler(svc)
	rr := httptest.NewRecorder()

	h.Version(rr, httptest.NewRequest(http.MethodGet, "/api/version?page=demo", nil))

	if rr.Header().Get("Cache-Control") != "no-cache, no-store, must-revalidate" {
		t.Errorf("Expected no-cache header, got %q", rr.Header().Get("Cache-Control"))
	}
	if svc.lastQuery != "demo" {
		t.Errorf("Expected page 'demo', got %q", svc.lastQuery)
	}
	var body models.VersionInfo
	json.NewDecoder(rr.Body).Decode(&body)
	if body.Version != models.VersionOf(mod) || body.Timestamp != mod.Unix() {
		t.Errorf("Unexpected version body %+v", body)
	}
	if body.Modified != "Sun, 01 Mar 2026 12:00:00 GMT" {
		t.Errorf("Unexpected modified %q", body.Modified)
	}
}

func TestPageHandler_Content(t *testing.T) {
	mod := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &stubPageService{page: &models.Page{Name: "demo", Content: "<!DOCTYPE html><html></html>", Modified: mod}}
	h := NewPageHandler(svc)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("file", "demo.html")
	req := httptest.NewRequest(http.MethodGet, "/pages/demo.html", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	h.Content(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if svc.lastQuery != "demo" {
		t.Errorf("Expected lookup of 'demo', got %q", svc.lastQuery)
	}
	if rr.Body.String() != "<!DOCTYPE html><html></html>" {
		t.Errorf("Unexpected body %q", rr.Body.String())
	}
	if rr.Header().Get("X-Page-Version") != models.VersionOf(mod) {
		t.Errorf("Unexpected version header %q", rr.Header().Get("X-Page-Version"))
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Unexpected content type %q", rr.Header().Get("Content-Type"))
	}
}

func TestPageHandler_ContentRequiresHTMLSuffix(t *testing.T) {
	h := NewPageHandler(&stubPageService{})
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("file", "demo.txt")
	req := httptest.NewRequest(http.MethodGet, "/pages/demo.txt", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	h.Content(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestPageHandler_Save(t *testing.T) {
	svc := &stubPageService{}
	h := NewPageHandler(svc)
	rr := httptest.NewRecorder()
	body, _ := json.Marshal(models.SaveRequest{Page: "demo", HTML: "<html></html>", BaseVersion: "7"})

	h.Save(rr, httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if svc.saved.BaseVersion != "7" || svc.saved.Page != "demo" {
		t.Errorf("Unexpected save request %+v", svc.saved)
	}
	if !strings.Contains(rr.Body.String(), `"version":"42"`) {
		t.Errorf("Unexpected body %s", rr.Body.String())
	}
}

// ─── Edit Handler ───

func TestEditHandler_Generate(t *testing.T) {
	editor := &stubEditor{resp: &models.GenerateResponse{Success: true, Message: "ok", Version: "1"}}
	h := NewEditHandler(editor)
	rr := httptest.NewRecorder()

	h.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"page":"demo","message":"hej","history":[{"role":"user","content":"a"}]}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if editor.got.Page != "demo" || len(editor.got.History) != 1 {
		t.Errorf("Unexpected request %+v", editor.got)
	}
}

func TestEditHandler_GenerateUpstreamError(t *testing.T) {
	h := NewEditHandler(&stubEditor{err: &services.UpstreamError{Message: "Błąd API (HTTP 500)"}})
	rr := httptest.NewRecorder()

	h.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"page":"demo","message":"hej"}`)))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rr.Code)
	}
}

type sseFrame struct {
	event string
	data  string
}

func readFrames(t *testing.T, body string) []sseFrame {
	t.Helper()
	var frames []sseFrame
	var cur sseFrame
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.event != "" {
				frames = append(frames, cur)
			}
			cur = sseFrame{}
		}
	}
	return frames
}

func TestEditHandler_StreamWritesFrames(t *testing.T) {
	editor := &stubEditor{events: []models.StreamEvent{
		models.StatusEvent(models.StatusAnalyzing, "Analizuję zmianę..."),
		models.ProgressEvent("{", 1),
		{Type: models.EventPatches, Patches: []models.ChangeOperation{{Action: "replace", Selector: "h1", Content: "Hi"}}, Summary: "s", Version: "9"},
		models.DoneEvent(),
	}}
	h := NewEditHandler(editor)
	rr := httptest.NewRecorder()

	h.Stream(rr, httptest.NewRequest(http.MethodPost, "/api/patch", strings.NewReader(`{"page":"demo","message":"zmień tytuł"}`)))

	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Expected event stream, got %q", ct)
	}
	frames := readFrames(t, rr.Body.String())
	want := []string{"status", "progress", "patches", "done"}
	if len(frames) != len(want) {
		t.Fatalf("Expected %d frames, got %d: %s", len(want), len(frames), rr.Body.String())
	}
	for i, f := range frames {
		if f.event != want[i] {
			t.Errorf("Expected frame %d to be %q, got %q", i, want[i], f.event)
		}
	}
	if frames[2].data != `{"patches":[{"action":"replace","selector":"h1","content":"Hi"}],"results":[],"summary":"s","version":"9"}` {
		t.Errorf("Unexpected patches payload %s", frames[2].data)
	}
	if frames[3].data != `{"success":true}` {
		t.Errorf("Unexpected done payload %s", frames[3].data)
	}
}

func TestEditHandler_StreamInvalidBody(t *testing.T) {
	h := NewEditHandler(&stubEditor{})
	rr := httptest.NewRecorder()

	h.Stream(rr, httptest.NewRequest(http.MethodPost, "/api/patch", strings.NewReader(`not json`)))

	frames := readFrames(t, rr.Body.String())
	if len(frames) != 1 || frames[0].event != "error" {
		t.Fatalf("Expected a single error frame, got %+v", frames)
	}
}
