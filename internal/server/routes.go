package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/auditor/internal/api/v1"
	"github.com/gosuda/auditor/internal/api/ws"
)

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterSessionRoutes(api, deps.Service)
	v1.RegisterDocumentRoutes(api, deps.Service)
	v1.RegisterGapRoutes(api, deps.Service)
	v1.RegisterISORoutes(api, deps.Service)
	if deps.Links != nil {
		v1.RegisterMessengerLinkRoutes(api, deps.Links)
	}
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/audit-sessions/{sessionID}", hub.ServeSession)
	r.Get("/me", hub.ServeUser)
}
