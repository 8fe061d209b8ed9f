package notify

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// Event types published by the garage and the backend.
const (
	EventReminder       = "reminder"
	EventSaveFailed     = "save_failed"
	EventLoadFailed     = "load_failed"
	EventVehicleCreated = "vehicle_created"
	EventVehicleUpdated = "vehicle_updated"
	EventVehicleDeleted = "vehicle_deleted"
)

// Event is an operator-facing notification.
type Event struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Lines   []string  `json:"lines,omitempty"`
	Data    any       `json:"data,omitempty"`
	Time    time.Time `json:"time"`
}

// Notifier delivers events to the operator.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to a logrus entry.
type LogNotifier struct {
	Log *log.Entry
}

// NewLogNotifier returns a notifier logging through the standard logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{Log: log.WithField("component", "notify")}
}

// Notify logs the event. Failures are logged at error level, everything else at info.
func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	entry := n.Log.WithField("event", e.Type)
	if len(e.Lines) > 0 {
		entry = entry.WithField("lines", e.Lines)
	}
	switch e.Type {
	case EventSaveFailed, EventLoadFailed:
		entry.Error(e.Message)
	default:
		entry.Info(e.Message)
	}
	return nil
}

// Multi fans an event out to several notifiers and joins their errors.
type Multi []Notifier

// Notify delivers e to every notifier, even when an earlier one fails.
func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
