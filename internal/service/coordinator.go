package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/openfabric/tokenbridge/internal/audit"
	"github.com/openfabric/tokenbridge/internal/cache"
	"github.com/openfabric/tokenbridge/internal/core"
)

// Coordinator produces a valid downstream token for a user while minimizing
// calls to the exchange endpoint. Cache first; on a miss it resolves the
// upstream session, performs the exchange, and populates the cache.
type Coordinator struct {
	cache     *cache.TokenCache
	sessions  core.SessionStore
	exchanger core.Exchanger
	auditor   core.Auditor

	// group is nil unless single-flight was enabled; by default concurrent
	// misses for the same user each perform their own exchange call and the
	// last Set wins, which is acceptable for the short TTL.
	group *singleflight.Group
}

type CoordinatorOption func(*Coordinator)

// WithSingleFlight collapses concurrent cache misses for the same user into
// one in-flight exchange call whose result all callers share.
func WithSingleFlight() CoordinatorOption {
	return func(c *Coordinator) {
		c.group = &singleflight.Group{}
	}
}

func NewCoordinator(
	tokenCache *cache.TokenCache,
	sessions core.SessionStore,
	exchanger core.Exchanger,
	auditor core.Auditor,
	opts ...CoordinatorOption,
) *Coordinator {
	if auditor == nil {
		auditor = noopAuditor{}
	}
	c := &Coordinator{
		cache:     tokenCache,
		sessions:  sessions,
		exchanger: exchanger,
		auditor:   auditor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveResult is the outcome of a successful Resolve.
type ResolveResult struct {
	// Token is the downstream access token.
	Token string

	// Cached indicates the token was served from cache without an exchange.
	Cached bool

	// Fingerprint identifies the token in logs and audit trails.
	Fingerprint string
}

// Resolve returns a valid downstream token for the user. On a cache hit no
// collaborator is invoked. Both error kinds are terminal for this call: the
// caller decides whether to retry or surface the failure.
func (c *Coordinator) Resolve(ctx context.Context, userID string) (*ResolveResult, error) {
	if userID == "" {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("empty user id"))
	}

	if c.group != nil {
		v, err, _ := c.group.Do(userID, func() (any, error) {
			return c.resolve(ctx, userID)
		})
		if err != nil {
			return nil, err
		}
		return v.(*ResolveResult), nil
	}
	return c.resolve(ctx, userID)
}

func (c *Coordinator) resolve(ctx context.Context, userID string) (*ResolveResult, error) {
	logger := log.Ctx(ctx)
	logger.UpdateContext(func(zc zerolog.Context) zerolog.Context {
		return zc.Str("user_id", userID)
	})

	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := core.AuditEntry{
		ID:     reqID,
		Time:   time.Now(),
		Action: "token.resolve",
		UserID: userID,
	}
	defer func() {
		if err := c.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for token resolution")
		}
	}()

	// fast path: fresh cached token, nothing else is consulted
	if token, ok := c.cache.Get(userID); ok {
		fingerprint := audit.Fingerprint(token)
		logger.Debug().Str("fingerprint", fingerprint).Msg("token cache hit")

		auditEntry.Success = true
		auditEntry.CacheHit = true
		auditEntry.TokenFingerprint = fingerprint
		return &ResolveResult{
			Token:       token,
			Cached:      true,
			Fingerprint: fingerprint,
		}, nil
	}
	logger.Debug().Msg("token cache miss")

	sess, err := c.sessions.Lookup(ctx, userID)
	if err != nil {
		auditEntry.Error = "no upstream session"
		if !errors.Is(err, core.ErrNoUpstreamSession) {
			// lookup failures other than "not found" are surfaced the same
			// way, but keep the cause in the audit trail
			auditEntry.Error = fmt.Sprintf("session lookup failed: %v", err)
		}
		return nil, httpError(http.StatusUnauthorized,
			fmt.Errorf("resolving upstream session: %w", core.ErrNoUpstreamSession))
	}
	if !sess.Usable() {
		auditEntry.Error = "upstream session without usable token"
		return nil, httpError(http.StatusUnauthorized,
			fmt.Errorf("resolving upstream session: %w", core.ErrNoUpstreamSession))
	}
	auditEntry.Provider = sess.Provider

	// single remote call, outside any lock; cancellation propagates from ctx
	artifact, err := c.exchanger.Exchange(ctx, sess.AccessToken)
	if err != nil {
		auditEntry.Error = "exchange failed"
		return nil, httpError(http.StatusBadGateway, core.NewExchangeError(err))
	}
	if artifact == nil || artifact.Value == "" {
		// empty success is treated as failure; the cache stays unpopulated
		auditEntry.Error = "exchange returned empty token"
		return nil, httpError(http.StatusBadGateway,
			core.NewExchangeError(fmt.Errorf("exchange returned an empty token")))
	}

	c.cache.Set(userID, artifact.Value)

	logger.Info().
		Str("provider", sess.Provider).
		Str("fingerprint", artifact.Fingerprint).
		Msg("downstream token resolved")

	auditEntry.Success = true
	auditEntry.TokenFingerprint = artifact.Fingerprint
	return &ResolveResult{
		Token:       artifact.Value,
		Cached:      false,
		Fingerprint: artifact.Fingerprint,
	}, nil
}

// Cache exposes the underlying token cache for administrative operations.
func (c *Coordinator) Cache() *cache.TokenCache {
	return c.cache
}

type noopAuditor struct{}

func (noopAuditor) Log(core.AuditEntry) error { return nil }
func (noopAuditor) Close() error              { return nil }
