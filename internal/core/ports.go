package core

import "context"

// SessionStore resolves the upstream session for a user.
// Implementations: in-memory store fed by the hosting application.
type SessionStore interface {
	// Lookup returns the upstream session for the given user.
	// It returns ErrNoUpstreamSession if no session exists.
	// Implementations resolve provider-name ambiguity internally.
	Lookup(ctx context.Context, userID string) (*UpstreamSession, error)
}

// Exchanger performs the downstream token-exchange call.
// Implementations: OAuth2 token-exchange client, static exchanger for tests.
type Exchanger interface {
	// Name returns the identifier of this exchanger (as used in config).
	Name() string

	// Exchange trades an upstream access token for a downstream token.
	// It performs a single remote call, no retry. An empty token on a
	// "successful" call is reported as an error by the caller.
	Exchange(ctx context.Context, upstreamToken string) (*TokenArtifact, error)
}
