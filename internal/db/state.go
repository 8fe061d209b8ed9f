package db

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/event"
)

// ConnState mirrors the four driver connection states reported by /api/db-status.
type ConnState int32

const (
	Disconnected  ConnState = 0
	Connected     ConnState = 1
	Connecting    ConnState = 2
	Disconnecting ConnState = 3
)

// Message returns the operator-facing label of the state.
func (s ConnState) Message() string {
	switch s {
	case Disconnected:
		return "Desconectado"
	case Connected:
		return "Conectado"
	case Connecting:
		return "Conectando"
	case Disconnecting:
		return "Desconectando"
	}
	return "Desconhecido"
}

// StateTracker follows the connection state through driver heartbeats.
type StateTracker struct {
	state atomic.Int32
}

// NewStateTracker starts out Disconnected.
func NewStateTracker() *StateTracker {
	return &StateTracker{}
}

// State returns the current connection state.
func (t *StateTracker) State() ConnState {
	return ConnState(t.state.Load())
}

// Set records a new state and logs transitions.
func (t *StateTracker) Set(s ConnState) {
	old := ConnState(t.state.Swap(int32(s)))
	if old == s {
		return
	}
	entry := log.WithFields(log.Fields{"from": old.Message(), "to": s.Message()})
	if s == Disconnected {
		entry.Warn("MongoDB connection state changed")
		return
	}
	entry.Info("MongoDB connection state changed")
}

// ServerMonitor feeds heartbeat results into the tracker. Heartbeats are
// ignored while a deliberate disconnect is in progress.
func (t *StateTracker) ServerMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			if t.State() != Disconnecting {
				t.Set(Connected)
			}
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			if t.State() == Disconnecting {
				return
			}
			log.WithError(e.Failure).Warn("MongoDB heartbeat failed")
			t.Set(Disconnected)
		},
	}
}
