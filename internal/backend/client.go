// Package backend is the HTTP client for the NeuroSense analysis API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"neurosense-client/internal/session"
)

// Client calls the analysis API endpoints the session state machine needs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the API at baseURL. Requests authenticate
// through the given token source; a nil source sends no Authorization header.
func NewClient(baseURL string, source oauth2.TokenSource) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	timeout := 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("NEUROSENSE_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	httpClient := &http.Client{Timeout: timeout}
	if source != nil {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, source)
		httpClient.Timeout = timeout
	}
	return &Client{baseURL: trimmed, httpClient: httpClient}, nil
}

// StaticToken adapts a plain API token into an oauth2 token source.
func StaticToken(token string) oauth2.TokenSource {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmed})
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
}

// UploadEEG uploads an EEG recording and returns the backend session id.
func (c *Client) UploadEEG(ctx context.Context, fileName string, file io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/analysis/eeg/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var parsed uploadResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.SessionID == "" {
		return "", fmt.Errorf("upload response missing session_id")
	}
	return parsed.SessionID, nil
}

type resultResponse struct {
	Status  string         `json:"status"`
	Results map[string]any `json:"results"`
	Message string         `json:"message"`
}

// EEGResult fetches the current status of an EEG analysis job. A 429 from
// the server's poll limiter maps to a pending status so the loop backs off
// instead of failing.
func (c *Client) EEGResult(ctx context.Context, sessionID string) (session.JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/analysis/eeg/result/"+sessionID, nil)
	if err != nil {
		return session.JobStatus{}, err
	}

	var parsed resultResponse
	if err := c.do(req, &parsed); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return session.JobStatus{State: session.JobPending}, nil
		}
		return session.JobStatus{}, err
	}

	switch strings.ToLower(strings.TrimSpace(parsed.Status)) {
	case session.JobCompleted:
		return session.JobStatus{State: session.JobCompleted, Results: parsed.Results}, nil
	case session.JobFailed:
		return session.JobStatus{State: session.JobFailed, Message: parsed.Message}, nil
	default:
		return session.JobStatus{State: session.JobPending}, nil
	}
}

// AnalyzeText runs a synchronous text-only analysis.
func (c *Client) AnalyzeText(ctx context.Context, text string) (map[string]any, error) {
	return c.postJSON(ctx, "/api/v1/analysis/text/analyze", map[string]any{"text": text})
}

// AnalyzeCombined runs a synchronous combined analysis over an uploaded EEG
// session and free text.
func (c *Client) AnalyzeCombined(ctx context.Context, eegSessionID, text string) (map[string]any, error) {
	return c.postJSON(ctx, "/api/v1/analysis/combined", map[string]any{
		"eeg_session_id": eegSessionID,
		"text":           text,
	})
}

func (c *Client) postJSON(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var parsed map[string]any
	if err := c.do(req, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// do sends the request, decodes a 2xx body into out and decodes everything
// else into an *APIError.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("analysis api response parse: %w", err)
	}
	return nil
}

// decodeError understands both the {"error":{code,message}} envelope and the
// bare {"detail": "..."} shape older deployments emit.
func decodeError(status int, body []byte) error {
	out := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			out.Code = envelope.Error.Code
			out.Message = envelope.Error.Message
		} else if detail, ok := envelope.Detail.(string); ok && strings.TrimSpace(detail) != "" {
			out.Message = strings.TrimSpace(detail)
		}
	}
	return out
}

var _ session.Backend = (*Client)(nil)
