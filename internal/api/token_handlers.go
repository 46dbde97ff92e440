package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/openfabric/tokenbridge/internal/api/presenter"
	"github.com/openfabric/tokenbridge/internal/core"
	"github.com/openfabric/tokenbridge/internal/service"
)

type ResolvePayload struct {
	// UserID identifies the user to resolve a downstream token for.
	UserID string `json:"user_id"`
}

type ResolveResponse struct {
	// AccessToken is the downstream token to attach as a bearer credential.
	AccessToken string `json:"access_token"`

	// Cached indicates the token was served from cache.
	Cached bool `json:"cached"`
}

// handleResolve processes token resolution requests.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload ResolvePayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode resolve request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.UserID == "" {
		presenter.Error(w, r, "missing user_id", http.StatusBadRequest)
		return
	}

	result, err := s.coordinator.Resolve(ctx, payload.UserID)
	if err != nil {
		status := http.StatusBadRequest
		var httpErr *service.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.StatusCode
		}

		// the underlying cause stays in the logs; the response carries a
		// stable message so no exchange internals (or token material) leak
		var exErr *core.ExchangeError
		switch {
		case errors.Is(err, core.ErrNoUpstreamSession):
			logger.Warn().Msg("no upstream session for user")
			presenter.Error(w, r, "please authenticate with the upstream identity provider first", status)
		case errors.As(err, &exErr):
			logger.Error().Err(exErr.Cause).Msg("token exchange failed")
			presenter.Error(w, r, "authentication with the downstream system failed", status)
		default:
			logger.Error().Err(err).Msg("token resolution failed")
			presenter.Err(w, r, err, "token resolution failed")
		}
		return
	}

	logger.Info().
		Bool("cached", result.Cached).
		Str("fingerprint", result.Fingerprint).
		Msg("token resolved successfully")

	presenter.JSON(w, r, ResolveResponse{
		AccessToken: result.Token,
		Cached:      result.Cached,
	}, http.StatusOK)
}
