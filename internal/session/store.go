package session

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/openfabric/tokenbridge/internal/core"
)

// DefaultProviderAliases are the upstream provider names tried when resolving
// a user's session. Deployments label the same IdP differently, so "okta" and
// "oidc" are both accepted out of the box.
var DefaultProviderAliases = []string{"okta", "oidc"}

var _ core.SessionStore = (*MemoryStore)(nil)

// MemoryStore keeps upstream sessions in memory, keyed by user and provider.
// The hosting layer registers sessions after the upstream login completes;
// this service only ever reads them during token resolution.
type MemoryStore struct {
	mu      sync.RWMutex
	byUser  map[string]map[string]*oauth2.Token
	aliases []string
}

func NewMemoryStore(providerAliases []string) *MemoryStore {
	if len(providerAliases) == 0 {
		providerAliases = DefaultProviderAliases
	}
	return &MemoryStore{
		byUser:  make(map[string]map[string]*oauth2.Token),
		aliases: providerAliases,
	}
}

// Put registers (or replaces) the upstream session for a user and provider.
func (s *MemoryStore) Put(userID, provider string, token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	providers, ok := s.byUser[userID]
	if !ok {
		providers = make(map[string]*oauth2.Token)
		s.byUser[userID] = providers
	}
	providers[provider] = token
}

// Delete removes all sessions for a user. No-op if absent.
func (s *MemoryStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byUser, userID)
}

// Lookup resolves the upstream session for a user, trying the configured
// provider aliases in order. It returns core.ErrNoUpstreamSession when no
// alias yields a session with a usable access token.
func (s *MemoryStore) Lookup(_ context.Context, userID string) (*core.UpstreamSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providers, ok := s.byUser[userID]
	if !ok {
		return nil, core.ErrNoUpstreamSession
	}

	for _, alias := range s.aliases {
		tok, ok := providers[alias]
		if !ok || tok == nil || tok.AccessToken == "" {
			continue
		}
		if !tok.Expiry.IsZero() && !tok.Valid() {
			// stale upstream session, the user has to log in again
			continue
		}
		return &core.UpstreamSession{
			UserID:      userID,
			Provider:    alias,
			AccessToken: tok.AccessToken,
			ExpiresAt:   tok.Expiry,
		}, nil
	}

	return nil, core.ErrNoUpstreamSession
}
