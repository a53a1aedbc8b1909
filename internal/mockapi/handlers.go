package mockapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurosense-client/internal/shared/metrics"
	"neurosense-client/internal/shared/server/respond"
)

// Error codes used in the error envelope.
const (
	codeInvalidInput = "invalid_input"
	codeNotFound     = "not_found"
	codeRateLimited  = "rate_limited"
)

const minTextLength = 10

// Handler serves the analysis API with deterministic fixtures.
type Handler struct {
	repo               *MemoryRepo
	store              *Store
	limiter            *pollLimiter
	completeAfterPolls int
}

// NewHandler constructs the fixture API handler.
func NewHandler(repo *MemoryRepo, store *Store, limiter *pollLimiter, completeAfterPolls int) *Handler {
	if completeAfterPolls < 1 {
		completeAfterPolls = 1
	}
	return &Handler{
		repo:               repo,
		store:              store,
		limiter:            limiter,
		completeAfterPolls: completeAfterPolls,
	}
}

// UploadEEG accepts a multipart EEG recording and queues an analysis session.
func (h *Handler) UploadEEG(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, codeInvalidInput, "An EEG recording file is required", nil)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, codeInvalidInput, "Uploaded file could not be read", nil)
		return
	}
	defer f.Close()

	sessionID := uuid.NewString()
	storageKey, size, err := h.store.Save(c.Request.Context(), sessionID, fileHeader.Filename, f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to store the recording", nil)
		return
	}

	session := EEGSession{
		ID:         sessionID,
		FileName:   fileHeader.Filename,
		StorageKey: storageKey,
		Size:       size,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.repo.Create(c.Request.Context(), session); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to create the session", nil)
		return
	}

	metrics.IncSessionStarted()
	c.Set("sessionId", sessionID)
	respond.Accepted(c, gin.H{"session_id": sessionID, "status": "pending"})
}

// EEGResult reports the session status, completing after a configured number
// of polls. Sessions whose upload was empty complete as failed.
func (h *Handler) EEGResult(c *gin.Context) {
	sessionID := c.Param("session_id")
	c.Set("sessionId", sessionID)
	metrics.IncPollRequest()

	if !h.limiter.Allow(sessionID) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, codeRateLimited, "Polling too fast, slow down", nil)
		return
	}

	session, err := h.repo.IncrementPolls(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, codeNotFound, "Unknown session", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to load the session", nil)
		return
	}

	if session.Polls <= h.completeAfterPolls {
		respond.OK(c, gin.H{"status": "pending"})
		return
	}

	first, err := h.repo.MarkDone(c.Request.Context(), sessionID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to update the session", nil)
		return
	}
	if session.Size == 0 {
		if first {
			metrics.IncSessionFailed()
			c.Set("statusTransition", "pending->failed")
		}
		respond.OK(c, gin.H{"status": "failed", "message": "uploaded recording is empty"})
		return
	}
	if first {
		metrics.IncSessionCompleted()
		metrics.ObserveSessionDurationMs(float64(time.Since(session.CreatedAt).Milliseconds()))
		c.Set("statusTransition", "pending->completed")
	}
	respond.OK(c, gin.H{"status": "completed", "results": eegFixture(sessionID)})
}

type analyzeTextRequest struct {
	Text string `json:"text"`
}

// AnalyzeText runs a synchronous text-only analysis.
func (h *Handler) AnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, codeInvalidInput, "Request body must be JSON with a text field", nil)
		return
	}
	if !validText(req.Text) {
		respond.Error(c, http.StatusBadRequest, codeInvalidInput, "Text must be at least 10 characters", nil)
		return
	}
	metrics.IncSessionStarted()
	metrics.IncSessionCompleted()
	respond.OK(c, textFixture(req.Text))
}

type analyzeCombinedRequest struct {
	EEGSessionID string `json:"eeg_session_id"`
	Text         string `json:"text"`
}

// AnalyzeCombined runs a synchronous combined analysis over an uploaded EEG
// session and free text.
func (h *Handler) AnalyzeCombined(c *gin.Context) {
	var req analyzeCombinedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, codeInvalidInput, "Request body must be JSON", nil)
		return
	}
	if !validText(req.Text) {
		respond.Error(c, http.StatusBadRequest, codeInvalidInput, "Text must be at least 10 characters", nil)
		return
	}
	c.Set("sessionId", req.EEGSessionID)
	if _, err := h.repo.GetByID(c.Request.Context(), req.EEGSessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, codeNotFound, "Unknown EEG session", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to load the session", nil)
		return
	}
	metrics.IncSessionCompleted()
	respond.OK(c, combinedFixture(req.EEGSessionID, req.Text))
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	respond.OK(c, gin.H{"status": "ok"})
}

func validText(text string) bool {
	collapsed := strings.Join(strings.Fields(text), " ")
	return len(collapsed) >= minTextLength
}
