// Package session keeps track of who is signed in to this process and
// persists that identity so it survives a restart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
)

// Slot keys. The identity and the token are stored separately so either can
// be inspected on its own, but Save and Clear always write both together.
const (
	IdentityKey = "session.identity"
	TokenKey    = "session.token"
)

// ErrInvalidSession is returned by Save for a session without an identity.
var ErrInvalidSession = errors.New("session: identity is required")

// Backend is the durable key-value surface a Store persists into.
// WriteSlots and DeleteSlots must apply all keys atomically.
type Backend interface {
	ReadSlots(ctx context.Context, keys ...string) (map[string]string, error)
	WriteSlots(ctx context.Context, slots map[string]string) error
	DeleteSlots(ctx context.Context, keys ...string) error
}

// PersistenceError reports that durable storage could not be updated. The
// in-memory session is still usable but will not survive a restart.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store holds at most one active Session. Reads, saves and clears are
// serialized, and a reader always sees a complete session or none.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.RWMutex
	current  *model.Session
	restored bool
}

// NewStore creates a Store persisting into backend. Nothing is read from
// the backend until the first Read or Restore.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// persistedIdentity is the JSON written to the identity slot.
type persistedIdentity struct {
	model.Identity
	CreatedAt time.Time `json:"created_at"`
}

// Save replaces the current session. Both slots are written before Save
// returns; if the backend fails, the previous durable state is kept, the new
// session is still made current in memory, and a *PersistenceError is
// returned.
func (s *Store) Save(ctx context.Context, sess model.Session) error {
	if sess.Identity.UserID == "" && sess.Identity.Username == "" {
		return ErrInvalidSession
	}

	sess = sess.Clone()
	sess.CreatedAt = sess.CreatedAt.Round(0).UTC()

	data, err := json.Marshal(persistedIdentity{Identity: sess.Identity, CreatedAt: sess.CreatedAt})
	if err != nil {
		return &PersistenceError{Op: "save", Err: fmt.Errorf("encode identity: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &sess
	s.restored = true

	if err := s.backend.WriteSlots(ctx, map[string]string{
		IdentityKey: string(data),
		TokenKey:    sess.Token,
	}); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Read returns a copy of the current session. The first call after startup
// restores the session from durable storage.
func (s *Store) Read(ctx context.Context) (model.Session, bool) {
	s.mu.RLock()
	if s.restored {
		cur := s.current
		s.mu.RUnlock()
		return snapshot(cur)
	}
	s.mu.RUnlock()

	_ = s.Restore(ctx) // failures are logged, read as "no session" and retried on the next call

	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.current)
}

func snapshot(cur *model.Session) (model.Session, bool) {
	if cur == nil {
		return model.Session{}, false
	}
	return cur.Clone(), true
}

// Restore loads the persisted session if that has not happened yet. A
// missing, partial or unreadable record restores as "no session". A backend
// failure leaves the store unrestored, so the next Read or Restore tries
// again, and is returned as a *PersistenceError.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.restored {
		return nil
	}

	sess, err := s.load(ctx)
	if err != nil {
		s.logger.Error("session restore failed", "error", err)
		return &PersistenceError{Op: "restore", Err: err}
	}
	s.current = sess
	s.restored = true
	if sess != nil {
		s.logger.Debug("session restored", "username", sess.Identity.Username)
	}
	return nil
}

func (s *Store) load(ctx context.Context) (*model.Session, error) {
	slots, err := s.backend.ReadSlots(ctx, IdentityKey, TokenKey)
	if err != nil {
		return nil, err
	}

	raw, hasIdentity := slots[IdentityKey]
	token, hasToken := slots[TokenKey]
	if !hasIdentity && !hasToken {
		return nil, nil
	}
	if !hasIdentity || !hasToken {
		s.logger.Warn("ignoring partial persisted session",
			"has_identity", hasIdentity, "has_token", hasToken)
		return nil, nil
	}

	var p persistedIdentity
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("ignoring unreadable persisted session", "error", err)
		return nil, nil
	}
	if p.UserID == "" && p.Username == "" {
		s.logger.Warn("ignoring persisted session without identity")
		return nil, nil
	}

	id := p.Identity
	return &model.Session{
		Identity:  model.NewIdentity(id.UserID, id.Username, id.Email, id.FullName, id.Roles),
		Token:     token,
		CreatedAt: p.CreatedAt,
	}, nil
}

// Clear removes the session from memory and durable storage. Clearing an
// empty store is a no-op. The in-memory session is dropped even when the
// backend fails, in which case a *PersistenceError is returned.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.restored = true

	if err := s.backend.DeleteSlots(ctx, IdentityKey, TokenKey); err != nil {
		return &PersistenceError{Op: "clear", Err: err}
	}
	return nil
}

// Ready reports whether the persisted session has been restored.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

// Reset forgets the in-memory session without touching durable storage, so
// the next Read restores again as if the process had restarted.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.restored = false
}
