package api

import (
	"net/http"

	"github.com/openfabric/tokenbridge/internal/api/middleware"
	"github.com/openfabric/tokenbridge/internal/core"
	"github.com/openfabric/tokenbridge/internal/service"
	"github.com/openfabric/tokenbridge/internal/session"
)

// AuditReader lists recorded audit entries. Not every auditor supports
// reading back (the file auditor is write-only), so this is separate from
// core.Auditor.
type AuditReader interface {
	GetRecent(limit int) ([]core.AuditEntry, error)
	Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error)
}

type Server struct {
	coordinator *service.Coordinator
	sessions    *session.MemoryStore
	auditReader AuditReader // nil when the configured auditor is write-only
}

func NewServer(
	coordinator *service.Coordinator,
	sessions *session.MemoryStore,
	auditor core.Auditor,
) *Server {
	reader, _ := auditor.(AuditReader)

	return &Server{
		coordinator: coordinator,
		sessions:    sessions,
		auditReader: reader,
	}
}

func (s *Server) Routes(signingKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// token resolution route
	mux.HandleFunc("POST "+ResolveTokenRoute, s.handleResolve)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("DELETE "+InvalidateCacheRoute, s.handleCacheInvalidate)
	adminMux.HandleFunc("DELETE "+ClearCacheRoute, s.handleCacheClear)
	adminMux.HandleFunc("POST "+SweepCacheRoute, s.handleCacheSweep)
	adminMux.HandleFunc("PUT "+SessionRoute, s.handleSessionPut)
	adminMux.HandleFunc("DELETE "+SessionRoute, s.handleSessionDelete)
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
	mux.Handle(AdminParent, middleware.AdminAuth(signingKey)(adminMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
