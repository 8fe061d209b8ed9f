package garage

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/notify"
)

// Bucket is the day a reminder falls on.
type Bucket int

const (
	Today Bucket = iota
	Tomorrow
)

func (b Bucket) String() string {
	if b == Tomorrow {
		return "TOMORROW"
	}
	return "TODAY"
}

// Reminder is one scheduled maintenance due today or tomorrow.
type Reminder struct {
	Bucket       Bucket
	VehicleID    string
	VehicleModel string
	ServiceType  string
	Date         string
}

func (r Reminder) String() string {
	return fmt.Sprintf("%s: %s for %s", r.Bucket, r.ServiceType, r.VehicleModel)
}

// ScanUpcoming lists scheduled maintenance dated exactly today or tomorrow
// relative to now. Completed records and unparsable dates are ignored.
func ScanUpcoming(vehicles []*models.Vehicle, now time.Time) []Reminder {
	today := models.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	var out []Reminder
	for _, v := range vehicles {
		for _, m := range v.History {
			if m.Status != models.StatusScheduled {
				continue
			}
			d, ok := m.DateOrNull()
			if !ok {
				continue
			}
			r := Reminder{VehicleID: v.ID, VehicleModel: v.Model, ServiceType: m.ServiceType, Date: m.Date}
			switch {
			case d.Equal(today):
				r.Bucket = Today
			case d.Equal(tomorrow):
				r.Bucket = Tomorrow
			default:
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// Remind scans the fleet and sends every reminder as one notification.
// Nothing is sent when no maintenance is due.
func (g *Garage) Remind(ctx context.Context) []Reminder {
	reminders := ScanUpcoming(g.Vehicles(), g.now())
	if len(reminders) == 0 {
		return reminders
	}
	lines := make([]string, len(reminders))
	for i, r := range reminders {
		lines[i] = r.String()
	}
	err := g.notifier.Notify(ctx, notify.Event{
		Type:    notify.EventReminder,
		Message: fmt.Sprintf("%d upcoming maintenance(s)", len(reminders)),
		Lines:   lines,
		Time:    g.now(),
	})
	if err != nil {
		g.log.WithError(err).Warn("Failed to send maintenance reminders")
	}
	return reminders
}
