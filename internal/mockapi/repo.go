package mockapi

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no EEG session exists for the given id.
var ErrNotFound = errors.New("eeg session not found")

// EEGSession is one uploaded recording awaiting analysis.
type EEGSession struct {
	ID         string
	FileName   string
	StorageKey string
	Size       int64
	Polls      int
	Done       bool
	CreatedAt  time.Time
}

// MemoryRepo stores EEG sessions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]EEGSession
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]EEGSession)}
}

// Create stores the session.
func (r *MemoryRepo) Create(ctx context.Context, session EEGSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[session.ID] = session
	return nil
}

// GetByID returns a session by its id.
func (r *MemoryRepo) GetByID(ctx context.Context, sessionID string) (EEGSession, error) {
	if err := ctx.Err(); err != nil {
		return EEGSession{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.byID[sessionID]
	if !ok {
		return EEGSession{}, ErrNotFound
	}
	return session, nil
}

// IncrementPolls bumps the poll counter and returns the updated session.
func (r *MemoryRepo) IncrementPolls(ctx context.Context, sessionID string) (EEGSession, error) {
	if err := ctx.Err(); err != nil {
		return EEGSession{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byID[sessionID]
	if !ok {
		return EEGSession{}, ErrNotFound
	}
	session.Polls++
	r.byID[sessionID] = session
	return session, nil
}

// MarkDone flags the session terminal. It reports whether this call was the
// first to do so.
func (r *MemoryRepo) MarkDone(ctx context.Context, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byID[sessionID]
	if !ok {
		return false, ErrNotFound
	}
	if session.Done {
		return false, nil
	}
	session.Done = true
	r.byID[sessionID] = session
	return true, nil
}
