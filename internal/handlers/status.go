package handlers

import (
	"net/http"

	"github.com/ukydev/smart-garage/internal/db"
)

// StatusHandler reports the database connection state.
type StatusHandler struct {
	reporter db.StatusReporter
}

// NewStatusHandler creates a new status handler. A nil reporter reads as Disconnected.
func NewStatusHandler(reporter db.StatusReporter) *StatusHandler {
	return &StatusHandler{reporter: reporter}
}

type dbStatus struct {
	ConnectionStatus db.ConnState `json:"connectionStatus"`
	StatusMessage    string       `json:"statusMessage"`
}

// DBStatus handles GET /api/db-status: 200 when connected, 503 otherwise.
func (h *StatusHandler) DBStatus(w http.ResponseWriter, r *http.Request) {
	state := db.Disconnected
	if h.reporter != nil {
		state = h.reporter.State()
	}
	status := http.StatusServiceUnavailable
	if state == db.Connected {
		status = http.StatusOK
	}
	writeJSON(w, status, dbStatus{ConnectionStatus: state, StatusMessage: state.Message()})
}
