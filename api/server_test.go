package api

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/echohq/echo-engine/config"
	"github.com/echohq/echo-engine/persona"
)

func personaResponseFixture() persona.Response {
	return persona.Response{
		Reply:      "hey",
		Confidence: 0.42,
		ContextUsed: []persona.MessageResult{
			{MessageID: "m1", Content: "first", Score: 0.9},
			{MessageID: "m2", Content: "second", Score: 0.8},
		},
	}
}

type testLogger struct{}

func (testLogger) Printf(format string, v ...any) {}
func (testLogger) Println(v ...any)               {}

var _ Logger = testLogger{}

func testServer() *Server {
	return New(config.Config{}, testLogger{})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body messageResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestMethodGuards(t *testing.T) {
	cases := []struct {
		path    string
		method  string
		allowed string
	}{
		{"/healthz", http.MethodPost, http.MethodGet},
		{"/v1/process", http.MethodGet, http.MethodPost},
		{"/v1/stats", http.MethodPost, http.MethodGet},
		{"/v1/chat", http.MethodGet, http.MethodPost},
		{"/v1/train", http.MethodDelete, http.MethodPost},
		{"/v1/clear", http.MethodGet, http.MethodPost},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		testServer().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != tc.allowed {
			t.Fatalf("%s: expected Allow %q, got %q", tc.path, tc.allowed, got)
		}
	}
}

func TestProcessRequiresUserID(t *testing.T) {
	var buf strings.Builder
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "chat.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("[01.02.23, 10:00:00] Alice: Hi!"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", form.FormDataContentType())

	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "user_id is required" {
		t.Fatalf("unexpected error: %q", got)
	}
}

func TestProcessRequiresFile(t *testing.T) {
	var buf strings.Builder
	form := multipart.NewWriter(&buf)
	form.WriteField("user_id", "user-1")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", form.FormDataContentType())

	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec); !strings.Contains(got, "file is required") {
		t.Fatalf("unexpected error: %q", got)
	}
}

func TestProcessRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(`{"user_id":"u"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatsRequiresUserID(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "user_id is required" {
		t.Fatalf("unexpected error: %q", got)
	}
}

func TestChatValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"blank message", `{"message":"   ","user_id":"u"}`, "message is required"},
		{"missing user", `{"message":"hi"}`, "user_id is required"},
		{"unknown field", `{"message":"hi","user_id":"u","bogus":1}`, "decode request"},
		{"malformed json", `{"message":`, "decode request"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if got := decodeError(t, rec); !strings.Contains(got, tc.want) {
			t.Fatalf("%s: expected %q in error, got %q", tc.name, tc.want, got)
		}
	}
}

func TestTrainRequiresUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/train", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "user_id is required" {
		t.Fatalf("unexpected error: %q", got)
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	cases := []string{`{}`, `{"confirm":false}`}

	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/clear", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
		if got := decodeError(t, rec); !strings.Contains(got, "confirm must be true") {
			t.Fatalf("body %s: unexpected error: %q", body, got)
		}
	}
}

func TestTransformChatResponseKeepsContextOrder(t *testing.T) {
	resp := transformChatResponse(personaResponseFixture())

	if resp.Response != "hey" || resp.Confidence != 0.42 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.ContextUsed) != 2 {
		t.Fatalf("expected 2 context messages, got %d", len(resp.ContextUsed))
	}
	if resp.ContextUsed[0].ID != "m1" || resp.ContextUsed[1].ID != "m2" {
		t.Fatalf("context order changed: %+v", resp.ContextUsed)
	}
	if resp.Timestamp == "" {
		t.Fatal("expected a timestamp")
	}
}
