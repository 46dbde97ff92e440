package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/openfabric/tokenbridge/internal/api/presenter"
	"github.com/openfabric/tokenbridge/internal/core"
)

// handleCacheInvalidate removes the cached downstream token for one user.
func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		presenter.Error(w, r, "missing user", http.StatusBadRequest)
		return
	}

	s.coordinator.Cache().Invalidate(userID)
	log.Ctx(r.Context()).Info().Str("user_id", userID).Msg("cache entry invalidated")

	presenter.JSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleCacheClear removes all cached downstream tokens.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	removed := s.coordinator.Cache().Clear()
	log.Ctx(r.Context()).Info().Int("removed", removed).Msg("cache cleared")

	presenter.JSON(w, r, map[string]any{
		"status":  "ok",
		"removed": removed,
	}, http.StatusOK)
}

// handleCacheSweep proactively removes expired entries.
func (s *Server) handleCacheSweep(w http.ResponseWriter, r *http.Request) {
	removed := s.coordinator.Cache().Sweep()
	log.Ctx(r.Context()).Info().Int("removed", removed).Msg("cache swept")

	presenter.JSON(w, r, map[string]any{
		"status":  "ok",
		"removed": removed,
	}, http.StatusOK)
}

type PutSessionPayload struct {
	// Provider is the upstream identity provider name (e.g. "okta").
	Provider string `json:"provider"`

	// AccessToken is the upstream access token from the completed login.
	AccessToken string `json:"access_token"`

	// ExpiresAt optionally bounds the upstream session's validity.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// handleSessionPut registers a user's upstream session. The hosting
// application calls this after the upstream login flow completes.
func (s *Server) handleSessionPut(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	userID := r.PathValue("user")
	if userID == "" {
		presenter.Error(w, r, "missing user", http.StatusBadRequest)
		return
	}

	var payload PutSessionPayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode session payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Provider == "" || payload.AccessToken == "" {
		presenter.Error(w, r, "provider and access_token are required", http.StatusBadRequest)
		return
	}

	s.sessions.Put(userID, payload.Provider, &oauth2.Token{
		AccessToken: payload.AccessToken,
		Expiry:      payload.ExpiresAt,
	})

	// a changed upstream session invalidates any token derived from the
	// previous one
	s.coordinator.Cache().Invalidate(userID)

	logger.Info().
		Str("user_id", userID).
		Str("provider", payload.Provider).
		Msg("upstream session registered")

	presenter.JSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleSessionDelete removes a user's upstream sessions and cached token.
func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		presenter.Error(w, r, "missing user", http.StatusBadRequest)
		return
	}

	s.sessions.Delete(userID)
	s.coordinator.Cache().Invalidate(userID)

	log.Ctx(r.Context()).Info().Str("user_id", userID).Msg("upstream session removed")
	presenter.JSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleAdminAudit processes requests to retrieve audit log entries.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if s.auditReader == nil {
		presenter.Error(w, r, "configured auditor does not support listing", http.StatusNotImplemented)
		return
	}

	// filters
	q := r.URL.Query()
	limitStr := q.Get("limit")

	filterCorrelationID := q.Get("correlation_id")
	filterUserID := q.Get("user_id")

	limit := 50
	if limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	var entries []core.AuditEntry
	var err error

	if filterCorrelationID != "" || filterUserID != "" {
		entries, err = s.auditReader.Find(func(entry core.AuditEntry) bool {
			if filterCorrelationID != "" && entry.ID != filterCorrelationID {
				return false
			}
			if filterUserID != "" && entry.UserID != filterUserID {
				return false
			}
			return true
		}, limit)
	} else {
		entries, err = s.auditReader.GetRecent(limit)
	}

	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}
