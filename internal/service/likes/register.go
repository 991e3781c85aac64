package likes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberdate/match-engine/internal/app"
)

// Registrar ties the likes service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the likes service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the received-likes routes to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)
	router.HandleFunc("/likes/received", service.HandleListReceived).Methods(http.MethodGet)
	router.HandleFunc("/likes/received/new", service.HandleListReceivedNew).Methods(http.MethodGet)
	router.HandleFunc("/likes/received/count", service.HandleCountReceived).Methods(http.MethodGet)
}
