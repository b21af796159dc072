package server

import (
	"net/http"

	"palisade-hq/palisade/pkg/server/middleware"
	"palisade-hq/palisade/pkg/telemetry/health"
)

// buildHandler assembles the route table and the middleware chain.
//
// Chain order, outermost first: recovery, request ID, logging, body
// limit, timeout. Recovery sits outside everything so a panic in another
// middleware still produces a response; request ID sits outside logging
// so completion logs carry it.
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/moderate/text", s.handleModerateText)
	mux.HandleFunc("POST /v1/moderate/image", s.handleModerateImage)
	mux.HandleFunc("POST /v1/moderate/contextual", s.handleModerateContextual)

	mux.HandleFunc("GET /v1/keys/me", s.handleCurrentKey)
	mux.HandleFunc("DELETE /v1/keys/me", s.handleRevokeCurrentKey)

	admin := middleware.AdminAuth(s.config.Admin.Token)
	mux.Handle("POST /v1/keys", admin(http.HandlerFunc(s.handleIssueKey)))
	mux.Handle("GET /v1/admin/keys", admin(http.HandlerFunc(s.handleListKeys)))
	mux.Handle("DELETE /v1/admin/keys/{id}", admin(http.HandlerFunc(s.handleRevokeKey)))
	mux.Handle("GET /v1/admin/logs", admin(http.HandlerFunc(s.handleQueryLogs)))
	mux.Handle("GET /v1/admin/logs/{id}", admin(http.HandlerFunc(s.handleGetLog)))

	mux.Handle("/health", s.health.LivenessHandler())
	mux.Handle("/ready", s.health.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.version, s.commit, s.buildTime))

	if s.metrics != nil && s.config.Telemetry.Metrics.Enabled {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Timeout(s.config.Server.RequestTimeout)(handler)
	handler = middleware.BodyLimit(s.config.Server.MaxBodyBytes)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		Enabled:        s.config.Server.CORS.Enabled,
		AllowedOrigins: s.config.Server.CORS.AllowedOrigins,
		AllowedMethods: s.config.Server.CORS.AllowedMethods,
		AllowedHeaders: s.config.Server.CORS.AllowedHeaders,
		MaxAge:         s.config.Server.CORS.MaxAge,
	})(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)
	return handler
}
