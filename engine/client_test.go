package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTrainSuccess(t *testing.T) {
	var gotPath, gotUserID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotUserID = body["userId"]

		json.NewEncoder(w).Encode(map[string]any{
			"success":           true,
			"sessionId":         "sess-42",
			"messagesProcessed": 120,
			"personalityTraits": map[string]float64{"openness": 0.7},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).Train(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/train" {
		t.Fatalf("expected /train, got %q", gotPath)
	}
	if gotUserID != "user-1" {
		t.Fatalf("expected userId in request body, got %q", gotUserID)
	}
	if result.SessionID != "sess-42" || result.MessagesProcessed != 120 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.PersonalityTraits["openness"] != 0.7 {
		t.Fatalf("unexpected traits: %+v", result.PersonalityTraits)
	}
}

func TestTrainEngineReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "not enough messages",
		})
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Train(context.Background(), "user-1")
	if err == nil || !strings.Contains(err.Error(), "not enough messages") {
		t.Fatalf("expected engine failure reason, got %v", err)
	}
}

func TestTrainHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Train(context.Background(), "user-1")
	if err == nil || !strings.Contains(err.Error(), "engine overloaded") {
		t.Fatalf("expected error body to surface, got %v", err)
	}
}

func TestTrainRequiresUserID(t *testing.T) {
	_, err := NewClient("http://localhost:8000").Train(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := NewClient(server.URL).Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHealthDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := NewClient(server.URL).Health(context.Background()); err == nil {
		t.Fatal("expected error for failing engine")
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://engine:8000/")
	if c.baseURL != "http://engine:8000" {
		t.Fatalf("expected trimmed base URL, got %q", c.baseURL)
	}
}
