package models

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// MaintenanceStatus is the lifecycle state of a maintenance record.
type MaintenanceStatus string

const (
	StatusCompleted MaintenanceStatus = "Completed"
	StatusScheduled MaintenanceStatus = "Scheduled"
)

// DateLayout is the calendar-date format used for maintenance dates.
const DateLayout = "2006-01-02"

const displayDateLayout = "02/01/2006"

// MaintenanceRecord represents a dated service event on a vehicle.
type MaintenanceRecord struct {
	Date        string            `json:"date" bson:"date"`
	ServiceType string            `json:"serviceType" bson:"service_type"`
	Cost        *float64          `json:"cost" bson:"cost,omitempty"` // required when completed
	Description string            `json:"description" bson:"description"`
	Status      MaintenanceStatus `json:"status" bson:"status"`
}

// NewCompleted builds a record for service already performed. The cost is mandatory.
func NewCompleted(date, serviceType string, cost float64, description string) MaintenanceRecord {
	return MaintenanceRecord{
		Date:        date,
		ServiceType: serviceType,
		Cost:        &cost,
		Description: description,
		Status:      StatusCompleted,
	}
}

// NewScheduled builds a record for future service. cost may be nil.
func NewScheduled(date, serviceType string, cost *float64, description string) MaintenanceRecord {
	return MaintenanceRecord{
		Date:        date,
		ServiceType: serviceType,
		Cost:        cost,
		Description: description,
		Status:      StatusScheduled,
	}
}

// DateOrNull parses the stored date as a local calendar day. ok is false on any failure.
func (m MaintenanceRecord) DateOrNull() (date time.Time, ok bool) {
	if m.Date == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, m.Date, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Validate checks the record against the current day.
func (m MaintenanceRecord) Validate() error {
	return m.ValidateAt(time.Now())
}

// ValidateAt checks the record as if today were the calendar day of now.
func (m MaintenanceRecord) ValidateAt(now time.Time) error {
	if strings.TrimSpace(m.ServiceType) == "" {
		return NewValidationError("service type cannot be empty.")
	}
	if m.Date == "" {
		return NewValidationError("maintenance date is required.")
	}
	date, ok := m.DateOrNull()
	if !ok {
		return NewValidationError("invalid date format, use YYYY-MM-DD.")
	}
	if m.Status == StatusCompleted && date.After(StartOfDay(now)) {
		return NewValidationError("a completed maintenance cannot have a future date.")
	}
	if m.Status == StatusCompleted && !validCost(m.Cost) {
		return NewValidationError("invalid cost for completed maintenance, it must be zero or a positive number.")
	}
	if m.Status != StatusCompleted && m.Status != StatusScheduled {
		return NewValidationError(fmt.Sprintf("invalid maintenance status %q.", m.Status))
	}
	return nil
}

func validCost(c *float64) bool {
	if c == nil {
		return false
	}
	v := *c
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Format renders the record for display.
func (m MaintenanceRecord) Format() string {
	date := "date not set"
	if m.Date != "" {
		if d, ok := m.DateOrNull(); ok {
			date = d.Format(displayDateLayout)
		} else {
			date = "invalid date"
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s", m.ServiceType, date)
	if m.Cost != nil && m.Status == StatusCompleted {
		fmt.Fprintf(&b, " - R$%.2f", *m.Cost)
	}
	if m.Description != "" {
		fmt.Fprintf(&b, " (%s)", m.Description)
	}
	fmt.Fprintf(&b, " [%s]", m.Status)
	return b.String()
}

// StartOfDay truncates t to midnight in the local time zone, the zone
// maintenance dates are parsed in.
func StartOfDay(t time.Time) time.Time {
	y, mo, d := t.In(time.Local).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.Local)
}

// sortHistory orders records by date ascending with unparsable dates last.
// The sort is stable so records sharing a date keep insertion order.
func sortHistory(h []MaintenanceRecord) {
	slices.SortStableFunc(h, func(a, b MaintenanceRecord) int {
		da, okA := a.DateOrNull()
		db, okB := b.DateOrNull()
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return da.Compare(db)
	})
}
