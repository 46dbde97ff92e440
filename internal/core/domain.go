package core

import "time"

// UpstreamSession associates a user with the access token obtained from the
// upstream identity provider. It is owned by the session-store collaborator;
// this service only ever reads it.
type UpstreamSession struct {
	// UserID is the unique identifier of the user owning this session.
	UserID string

	// Provider is the name of the identity provider the session came from
	// (e.g. "okta", "oidc").
	Provider string

	// AccessToken is the raw upstream access token.
	AccessToken string

	// ExpiresAt indicates when the upstream token becomes invalid.
	// A zero value means the expiry is unknown.
	ExpiresAt time.Time
}

// Usable reports whether the session carries an access token we can exchange.
func (s *UpstreamSession) Usable() bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return false
	}
	return true
}

// ExchangeCredentials identify this service to the downstream exchange
// endpoint. Loaded once at startup, never mutated afterwards.
type ExchangeCredentials struct {
	ClientID     string
	ClientSecret string
}

// TokenArtifact is the result of a successful exchange.
type TokenArtifact struct {
	// Value is the downstream access token.
	Value string `json:"value"`

	// Fingerprint is a non-reversible identifier for tracability.
	// Log this, never Value.
	Fingerprint string `json:"fingerprint"`

	// ExpiresAt indicates when this token becomes invalid.
	ExpiresAt time.Time `json:"expires_at"`
}
