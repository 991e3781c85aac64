package safety

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberdate/match-engine/internal/app"
)

// Registrar ties the safety service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the safety service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the block routes to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)
	router.HandleFunc("/blocks", service.HandleBlock).Methods(http.MethodPost)
}
