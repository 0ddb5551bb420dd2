package safety

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued override token stays valid.
// Fifteen minutes is long enough for a mentor to hand a token to an acting
// operator and for the retry to go through, and short enough that a leaked
// token is not a standing credential.
const DefaultTokenTTL = 15 * time.Minute

// TokenStore issues and consumes single-use override tokens. The
// check-and-consume sequence runs under one lock so two concurrent
// requests can never both consume the same token.
type TokenStore struct {
	ttl    time.Duration
	tokens map[string]*OverrideToken
	mu     sync.Mutex

	// now is replaceable in tests.
	now func() time.Time
}

// NewTokenStore creates a token store. ttl <= 0 selects DefaultTokenTTL.
func NewTokenStore(ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenStore{
		ttl:    ttl,
		tokens: make(map[string]*OverrideToken),
		now:    time.Now,
	}
}

// Issue creates a token bound to an action name on behalf of a supervising
// actor.
func (s *TokenStore) Issue(action, createdBy string) *OverrideToken {
	now := s.now().UTC()
	token := &OverrideToken{
		TokenID:   uuid.New().String(),
		Action:    action,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.tokens[token.TokenID] = token
	s.mu.Unlock()

	return token
}

// Consume validates existence, non-consumption, action match, and
// non-expiry atomically, then marks the token consumed. Each failure mode
// yields its own TokenInvalidError reason.
func (s *TokenStore) Consume(tokenID, action string) (*OverrideToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, NewTokenInvalidError(tokenID, TokenMissing)
	}
	if token.Consumed {
		return nil, NewTokenInvalidError(tokenID, TokenConsumed)
	}
	if token.Action != action {
		return nil, NewTokenInvalidError(tokenID, TokenActionMismatch)
	}
	if s.now().UTC().After(token.ExpiresAt) {
		return nil, NewTokenInvalidError(tokenID, TokenExpired)
	}

	token.Consumed = true
	copied := *token
	return &copied, nil
}

// Get returns a copy of a token by id, or nil if unknown (for inspection
// and tests; consumption goes through Consume only).
func (s *TokenStore) Get(tokenID string) *OverrideToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil
	}
	copied := *token
	return &copied
}
