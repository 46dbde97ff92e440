package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openfabric/tokenbridge/internal/api/middleware"
	"github.com/openfabric/tokenbridge/internal/audit"
	"github.com/openfabric/tokenbridge/internal/core"
)

const (
	// grant and token types from RFC 8693
	tokenExchangeGrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
	accessTokenType        = "urn:ietf:params:oauth:token-type:access_token"
)

// tokenResponse is the exchange endpoint's success payload.
type tokenResponse struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int64  `json:"expires_in"`
}

// exchangeToken performs the single remote exchange call: upstream token in,
// downstream token out. No retry, no backoff; a failed call simply fails.
func (e *OAuth2Exchanger) exchangeToken(ctx context.Context, upstreamToken string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", tokenExchangeGrantType)
	form.Set("subject_token", upstreamToken)
	form.Set("subject_token_type", accessTokenType)
	form.Set("client_id", e.credentials.ClientID)
	form.Set("client_secret", e.credentials.ClientSecret)
	if e.audience != "" {
		form.Set("audience", e.audience)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// inject audit user-agent
	correlationID := middleware.CorrelationCtx(ctx)
	req.Header.Set("User-Agent", audit.CreateUserAgent(correlationID, ""))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		// drain a little of the body for diagnostics, but never log it
		// verbatim at error level since it may echo token material
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Ctx(ctx).Debug().
			Int("status", resp.StatusCode).
			Int("body_len", len(body)).
			Msg("exchange endpoint returned non-OK status")
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &tokenResp, nil
}

// Exchange implements core.Exchanger.
func (e *OAuth2Exchanger) Exchange(ctx context.Context, upstreamToken string) (*core.TokenArtifact, error) {
	logger := log.Ctx(ctx)

	resp, err := e.exchangeToken(ctx, upstreamToken)
	if err != nil {
		return nil, fmt.Errorf("exchanging token at '%s': %w", e.name, err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("exchange endpoint '%s' returned an empty access token", e.name)
	}

	var expiresAt time.Time
	if resp.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	fingerprint := audit.Fingerprint(resp.AccessToken)
	logger.Debug().
		Str("exchanger", e.name).
		Str("fingerprint", fingerprint).
		Int64("expires_in", resp.ExpiresIn).
		Msg("downstream token obtained")

	return &core.TokenArtifact{
		Value:       resp.AccessToken,
		Fingerprint: fingerprint,
		ExpiresAt:   expiresAt,
	}, nil
}
