package discovery

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberdate/match-engine/internal/app"
)

// Registrar ties the discovery service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery routes to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)
	router.HandleFunc("/discovery/candidates", service.HandleCandidates).Methods(http.MethodGet)
}
