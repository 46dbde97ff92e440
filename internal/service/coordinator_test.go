package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/openfabric/tokenbridge/internal/audit"
	"github.com/openfabric/tokenbridge/internal/cache"
	"github.com/openfabric/tokenbridge/internal/core"
	"github.com/openfabric/tokenbridge/internal/session"
)

// fakeExchanger counts calls and maps upstream to downstream tokens.
type fakeExchanger struct {
	calls  atomic.Int64
	tokens map[string]string
	err    error

	// block, when non-nil, is closed to release in-flight calls
	block chan struct{}
}

func (f *fakeExchanger) Name() string { return "fake" }

func (f *fakeExchanger) Exchange(_ context.Context, upstreamToken string) (*core.TokenArtifact, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	downstream := f.tokens[upstreamToken]
	return &core.TokenArtifact{
		Value:       downstream,
		Fingerprint: audit.Fingerprint(downstream),
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func newTestCoordinator(t *testing.T, ex core.Exchanger, opts ...CoordinatorOption) (*Coordinator, *session.MemoryStore, *audit.InMemoryAuditor) {
	t.Helper()
	sessions := session.NewMemoryStore(nil)
	auditor := audit.NewInMemoryAuditor()
	c := NewCoordinator(cache.New(), sessions, ex, auditor, opts...)
	return c, sessions, auditor
}

func TestCoordinator_ResolveAndCache(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{tokens: map[string]string{"up-123": "down-456"}}
	c, sessions, _ := newTestCoordinator(t, ex)

	sessions.Put("u2", "okta", &oauth2.Token{AccessToken: "up-123"})

	res, err := c.Resolve(ctx, "u2")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if res.Token != "down-456" {
		t.Errorf("Token = %q, want %q", res.Token, "down-456")
	}
	if res.Cached {
		t.Error("Cached = true on first resolve, want false")
	}

	// the result must have been written back to the cache
	if got, ok := c.Cache().Get("u2"); !ok || got != "down-456" {
		t.Errorf("cache Get() = (%q, %v), want (\"down-456\", true)", got, ok)
	}
}

func TestCoordinator_SecondResolveIsPureCacheHit(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{tokens: map[string]string{"up-123": "down-456"}}
	c, sessions, _ := newTestCoordinator(t, ex)

	sessions.Put("u1", "okta", &oauth2.Token{AccessToken: "up-123"})

	if _, err := c.Resolve(ctx, "u1"); err != nil {
		t.Fatalf("first Resolve() unexpected error: %v", err)
	}

	// drop the session: a cache hit must not consult the session store
	// or the exchanger at all
	sessions.Delete("u1")

	res, err := c.Resolve(ctx, "u1")
	if err != nil {
		t.Fatalf("second Resolve() unexpected error: %v", err)
	}
	if !res.Cached {
		t.Error("Cached = false on second resolve, want true")
	}
	if res.Token != "down-456" {
		t.Errorf("Token = %q, want %q", res.Token, "down-456")
	}
	if n := ex.calls.Load(); n != 1 {
		t.Errorf("exchange calls = %d across the pair, want 1", n)
	}
}

func TestCoordinator_NoUpstreamSession(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{tokens: map[string]string{}}
	c, _, _ := newTestCoordinator(t, ex)

	_, err := c.Resolve(ctx, "ghost")
	if !errors.Is(err, core.ErrNoUpstreamSession) {
		t.Fatalf("Resolve() error = %v, want ErrNoUpstreamSession", err)
	}

	// the exchanger must not have been invoked
	if n := ex.calls.Load(); n != 0 {
		t.Errorf("exchange calls = %d, want 0", n)
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 401 {
		t.Errorf("error status = %v, want 401", err)
	}
}

func TestCoordinator_ExchangeFailure(t *testing.T) {
	ctx := context.Background()
	cause := fmt.Errorf("endpoint unreachable")
	ex := &fakeExchanger{err: cause}
	c, sessions, _ := newTestCoordinator(t, ex)

	sessions.Put("u1", "okta", &oauth2.Token{AccessToken: "up-123"})

	_, err := c.Resolve(ctx, "u1")
	var exErr *core.ExchangeError
	if !errors.As(err, &exErr) {
		t.Fatalf("Resolve() error = %v, want *core.ExchangeError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("ExchangeError does not wrap the underlying cause")
	}

	// a failed exchange never populates the cache
	if got, ok := c.Cache().Get("u1"); ok {
		t.Errorf("cache Get() = (%q, true) after failed exchange, want absent", got)
	}
}

func TestCoordinator_EmptyTokenIsFailure(t *testing.T) {
	ctx := context.Background()
	// the fake returns "" for unmapped upstream tokens, which models an
	// exchange endpoint answering 200 with an empty access token
	ex := &fakeExchanger{tokens: map[string]string{}}
	c, sessions, _ := newTestCoordinator(t, ex)

	sessions.Put("u1", "okta", &oauth2.Token{AccessToken: "up-unmapped"})

	_, err := c.Resolve(ctx, "u1")
	var exErr *core.ExchangeError
	if !errors.As(err, &exErr) {
		t.Fatalf("Resolve() error = %v, want *core.ExchangeError", err)
	}
	if _, ok := c.Cache().Get("u1"); ok {
		t.Error("cache populated after empty-token exchange")
	}
}

func TestCoordinator_EmptyUserID(t *testing.T) {
	c, _, _ := newTestCoordinator(t, &fakeExchanger{})

	_, err := c.Resolve(context.Background(), "")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 400 {
		t.Errorf("Resolve(\"\") error = %v, want 400 HTTPError", err)
	}
}

func TestCoordinator_AuditTrail(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{tokens: map[string]string{"up-123": "down-456"}}
	c, sessions, auditor := newTestCoordinator(t, ex)

	sessions.Put("u1", "okta", &oauth2.Token{AccessToken: "up-123"})

	_, _ = c.Resolve(ctx, "u1")    // miss + exchange
	_, _ = c.Resolve(ctx, "u1")    // hit
	_, _ = c.Resolve(ctx, "ghost") // no session

	entries, err := auditor.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent() unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("audit entries = %d, want 3", len(entries))
	}

	if !entries[0].Success || entries[0].CacheHit {
		t.Errorf("entry[0] = %+v, want success+miss", entries[0])
	}
	if !entries[1].Success || !entries[1].CacheHit {
		t.Errorf("entry[1] = %+v, want success+hit", entries[1])
	}
	if entries[2].Success || entries[2].Error == "" {
		t.Errorf("entry[2] = %+v, want failure with error", entries[2])
	}

	// the audit trail carries fingerprints, never raw tokens
	for _, e := range entries {
		if e.TokenFingerprint == "down-456" {
			t.Error("audit entry contains the raw token")
		}
	}
}

func TestCoordinator_SingleFlight(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{
		tokens: map[string]string{"up-123": "down-456"},
		block:  make(chan struct{}),
	}
	c, sessions, _ := newTestCoordinator(t, ex, WithSingleFlight())

	sessions.Put("u1", "okta", &oauth2.Token{AccessToken: "up-123"})

	const concurrent = 8
	var wg sync.WaitGroup
	results := make([]*ResolveResult, concurrent)
	errs := make([]error, concurrent)

	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = c.Resolve(ctx, "u1")
		}(i)
	}

	// let all goroutines pile up on the in-flight exchange, then release it
	time.Sleep(50 * time.Millisecond)
	close(ex.block)
	wg.Wait()

	for i := 0; i < concurrent; i++ {
		if errs[i] != nil {
			t.Fatalf("Resolve()[%d] unexpected error: %v", i, errs[i])
		}
		if results[i].Token != "down-456" {
			t.Errorf("Token[%d] = %q, want %q", i, results[i].Token, "down-456")
		}
	}
	if n := ex.calls.Load(); n != 1 {
		t.Errorf("exchange calls = %d with single-flight, want 1", n)
	}
}
