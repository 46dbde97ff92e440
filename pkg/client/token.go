package client

import (
	"context"
	"fmt"

	"github.com/openfabric/tokenbridge/internal/api"
)

// ResolveToken asks the server for a valid downstream token for the user.
// On a cache miss this blocks on the server-side exchange call.
func (c *Client) ResolveToken(ctx context.Context, userID string) (*api.ResolveResponse, string, error) {
	payload := api.ResolvePayload{UserID: userID}

	var result api.ResolveResponse
	correlation, err := c.post(ctx, c.url().
		setPath(api.ResolveTokenRoute).
		build(), payload, &result)
	if err != nil {
		return nil, correlation, fmt.Errorf("resolving token: %w", err)
	}
	return &result, correlation, nil
}
