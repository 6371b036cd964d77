package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"phrasebook/internal/domain"
)

var _ domain.SessionStore = (*SessionStore)(nil)

// SessionStore is a process-local session registry. Sessions do not
// survive a restart. The mutex is held only for the map operation itself.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty registry. A zero ttl means sessions
// never expire.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create generates a random token and binds it to userID.
func (s *SessionStore) Create(ctx context.Context, userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	sess := domain.Session{Token: token, UserID: userID, CreatedAt: now}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()
	return token, nil
}

// Resolve returns the user bound to token. Expired sessions are removed.
func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return 0, false, nil
	}
	if sess.Expired(now) {
		delete(s.sessions, token)
		return 0, false, nil
	}
	return sess.UserID, true, nil
}

// Destroy removes token. Destroying an unknown token is a no-op.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// PurgeExpired deletes all expired sessions and reports how many were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, v := range s.sessions {
		if v.Expired(now) {
			delete(s.sessions, k)
			n++
		}
	}
	return n
}

// Len returns the number of live entries, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
