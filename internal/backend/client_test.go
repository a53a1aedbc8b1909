package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neurosense-client/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, StaticToken("test-token"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestUploadEEGSendsMultipartAndAuth(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analysis/eeg/upload" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("missing request id header")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "rec.fif" {
			t.Errorf("unexpected filename: %s", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if string(body) != "eeg-bytes" {
			t.Errorf("unexpected body: %q", body)
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"session_id": "sess-42", "status": "pending"}`))
	}))

	id, err := client.UploadEEG(context.Background(), "rec.fif", strings.NewReader("eeg-bytes"))
	if err != nil {
		t.Fatalf("UploadEEG: %v", err)
	}
	if id != "sess-42" {
		t.Fatalf("unexpected session id: %s", id)
	}
}

func TestUploadEEGDecodesErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "invalid_input", "message": "unsupported file format"}}`))
	}))

	_, err := client.UploadEEG(context.Background(), "a.txt", strings.NewReader("x"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "invalid_input" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if apiErr.ServerMessage() != "unsupported file format" {
		t.Fatalf("unexpected server message: %q", apiErr.ServerMessage())
	}
}

func TestUploadEEGDecodesDetailShape(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "file too large"}`))
	}))

	_, err := client.UploadEEG(context.Background(), "a.fif", strings.NewReader("x"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.ServerMessage() != "file too large" {
		t.Fatalf("unexpected server message: %q", apiErr.ServerMessage())
	}
}

func TestEEGResultStatusMapping(t *testing.T) {
	responses := map[string]string{
		"pending":   `{"status": "pending"}`,
		"unknown":   `{"status": "queued"}`,
		"completed": `{"status": "completed", "results": {"times": [0, 1]}}`,
		"failed":    `{"status": "failed", "message": "recording too noisy"}`,
	}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/analysis/eeg/result/")
		_, _ = w.Write([]byte(responses[id]))
	}))

	for id, wantState := range map[string]string{
		"pending":   session.JobPending,
		"unknown":   session.JobPending,
		"completed": session.JobCompleted,
		"failed":    session.JobFailed,
	} {
		status, err := client.EEGResult(context.Background(), id)
		if err != nil {
			t.Fatalf("%s: EEGResult: %v", id, err)
		}
		if status.State != wantState {
			t.Fatalf("%s: expected %s, got %s", id, wantState, status.State)
		}
	}

	status, err := client.EEGResult(context.Background(), "completed")
	if err != nil {
		t.Fatalf("EEGResult: %v", err)
	}
	if status.Results == nil {
		t.Fatalf("completed status must carry the payload")
	}
	status, err = client.EEGResult(context.Background(), "failed")
	if err != nil {
		t.Fatalf("EEGResult: %v", err)
	}
	if status.Message != "recording too noisy" {
		t.Fatalf("unexpected failure message: %q", status.Message)
	}
}

func TestEEGResultRateLimitMapsToPending(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": "rate_limited", "message": "Polling too fast"}}`))
	}))

	status, err := client.EEGResult(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("expected 429 to map to pending, got %v", err)
	}
	if status.State != session.JobPending {
		t.Fatalf("unexpected state: %s", status.State)
	}
}

func TestAnalyzeTextPostsJSON(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analysis/text/analyze" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"text":"feeling anxious lately"`) {
			t.Errorf("unexpected body: %s", body)
		}
		_, _ = w.Write([]byte(`{"fusion_results": {"risk_level": "mild"}}`))
	}))

	raw, err := client.AnalyzeText(context.Background(), "feeling anxious lately")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if raw["fusion_results"] == nil {
		t.Fatalf("unexpected payload: %v", raw)
	}
}

func TestAnalyzeCombinedSendsSessionID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analysis/combined" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"eeg_session_id":"sess-9"`) {
			t.Errorf("unexpected body: %s", body)
		}
		_, _ = w.Write([]byte(`{}`))
	}))

	if _, err := client.AnalyzeCombined(context.Background(), "sess-9", "feeling low these days"); err != nil {
		t.Fatalf("AnalyzeCombined: %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("   ", nil); err == nil {
		t.Fatalf("expected an error for an empty base URL")
	}
}
