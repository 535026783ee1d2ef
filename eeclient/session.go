package eeclient

import (
	"context"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
)

// SessionContext owns the authenticated session marker for one API client.
// Initialize is idempotent with respect to an unchanged token. Concurrent
// calls with different tokens race; the last successful call wins the
// marker. Concurrent calls with the same token are screened by equality
// only, not deduplicated in flight.
type SessionContext struct {
	client APIClient

	mu           sync.Mutex
	currentToken string
	initialized  bool
}

func NewSessionContext(client APIClient) *SessionContext {
	return &SessionContext{client: client}
}

func (s *SessionContext) Initialize(ctx context.Context, token string) errorsx.Error {
	s.mu.Lock()
	alreadyActive := s.initialized && s.currentToken == token
	s.mu.Unlock()

	if alreadyActive {
		return nil
	}

	err := s.client.InitializeSession(ctx, token)
	if err != nil {
		// the previous marker stays active; a bad token must not clobber it
		return errorsx.Wrap(err)
	}

	s.mu.Lock()
	s.currentToken = token
	s.initialized = true
	s.mu.Unlock()

	return nil
}

func (s *SessionContext) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *SessionContext) CurrentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentToken
}
