package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/smart-garage/internal/tips"
)

// TipsHandler serves the static maintenance tips.
type TipsHandler struct {
	catalogue *tips.Catalogue
}

// NewTipsHandler creates a new tips handler.
func NewTipsHandler(catalogue *tips.Catalogue) *TipsHandler {
	return &TipsHandler{catalogue: catalogue}
}

// General handles GET /api/dicas-manutencao.
func (h *TipsHandler) General(w http.ResponseWriter, r *http.Request) {
	log.Debug("General maintenance tips requested")
	writeJSON(w, http.StatusOK, h.catalogue.General)
}

// ByKind handles GET /api/dicas-manutencao/{tipo}.
func (h *TipsHandler) ByKind(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("tipo")
	log.WithField("tipo", kind).Debug("Maintenance tips requested")
	list, ok := h.catalogue.ForKind(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "Nenhuma dica específica encontrada para o tipo: "+kind)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
