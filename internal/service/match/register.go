package match

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberdate/match-engine/internal/app"
)

// Registrar ties the match service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the match-action routes to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)
	router.HandleFunc("/match-actions", service.HandleRecordAction).Methods(http.MethodPost)
	router.HandleFunc("/match-actions/undoable", service.HandleGetUndoable).Methods(http.MethodGet)
	router.HandleFunc("/match-actions/undo", service.HandleUndo).Methods(http.MethodPost)
}
