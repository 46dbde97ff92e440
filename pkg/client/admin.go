package client

import (
	"context"
	"time"

	"github.com/openfabric/tokenbridge/internal/api"
	"github.com/openfabric/tokenbridge/internal/core"
)

// InvalidateUser removes the cached downstream token for one user.
func (c *Client) InvalidateUser(ctx context.Context, userID string) error {
	_, err := c.delete(ctx, c.url().
		setPath(api.InvalidateCacheRoute).
		setPathParam("user", userID).
		build(), nil)
	return err
}

type CacheOpResult struct {
	Status  string `json:"status"`
	Removed int    `json:"removed"`
}

// ClearCache removes all cached downstream tokens and reports how many.
func (c *Client) ClearCache(ctx context.Context) (int, error) {
	var res CacheOpResult
	_, err := c.delete(ctx, c.url().
		setPath(api.ClearCacheRoute).
		build(), &res)
	return res.Removed, err
}

// SweepCache proactively removes expired entries and reports how many.
func (c *Client) SweepCache(ctx context.Context) (int, error) {
	var res CacheOpResult
	_, err := c.post(ctx, c.url().
		setPath(api.SweepCacheRoute).
		build(), nil, &res)
	return res.Removed, err
}

// PutSession registers a user's upstream session with the server.
func (c *Client) PutSession(ctx context.Context, userID, provider, accessToken string, expiresAt time.Time) error {
	payload := api.PutSessionPayload{
		Provider:    provider,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}
	_, err := c.put(ctx, c.url().
		setPath(api.SessionRoute).
		setPathParam("user", userID).
		build(), payload, nil)
	return err
}

// DeleteSession removes a user's upstream sessions and cached token.
func (c *Client) DeleteSession(ctx context.Context, userID string) error {
	_, err := c.delete(ctx, c.url().
		setPath(api.SessionRoute).
		setPathParam("user", userID).
		build(), nil)
	return err
}

// ListAudits retrieves the latest audit entries from the server, limited to the specified number.
func (c *Client) ListAudits(ctx context.Context, limit uint) ([]core.AuditEntry, error) {
	var resp []core.AuditEntry
	_, err := c.get(ctx, c.url().
		setPath(api.ListAuditsRoute).
		addQueryParam("limit", limit).
		build(), &resp)
	return resp, err
}
