package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhazbridge"

	ResolveTokenRoute = "/v1/token/resolve"

	AdminParent          = "/v1/admin/"
	ClearCacheRoute      = AdminParent + "cache"
	SweepCacheRoute      = AdminParent + "cache/sweep"
	InvalidateCacheRoute = AdminParent + "cache/{user}"
	SessionRoute         = AdminParent + "sessions/{user}"
	ListAuditsRoute      = AdminParent + "audit"
)
