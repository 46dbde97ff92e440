package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "token.resolve", "cache.clear")
	Action string `json:"action"`

	// UserID identifies the user the action was performed for
	UserID string `json:"user_id,omitempty"`

	// CacheHit indicates the token was served from cache without an exchange
	CacheHit bool `json:"cache_hit"`

	// Provider is the upstream provider the session came from
	Provider string `json:"provider,omitempty"`

	// TokenFingerprint is the non-reversible fingerprint of the issued token
	TokenFingerprint string `json:"token_fingerprint,omitempty"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
