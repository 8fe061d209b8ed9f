package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Kind is the variant tag of a vehicle. Its value doubles as the persisted discriminator.
type Kind string

const (
	KindCar    Kind = "carro"
	KindSports Kind = "esportivo"
	KindTruck  Kind = "caminhao"
)

// Speed caps in km/h.
const (
	CarMaxSpeed         = 180
	SportsMaxSpeed      = 250
	SportsTurboMaxSpeed = 320
	TruckMaxSpeed       = 120
)

const (
	turboBoost     = 1.5
	minCargoFactor = 0.3
)

// IsValidKind checks if a kind is one of the known variants
func IsValidKind(k Kind) bool {
	switch k {
	case KindCar, KindSports, KindTruck:
		return true
	default:
		return false
	}
}

// Change tells the fleet store whether an operation should be persisted.
type Change int

const (
	// NoChange means nothing observable changed.
	NoChange Change = iota
	// Transient is an intermediate state (speed rising while driving). Logged, not saved.
	Transient
	// Terminal is a settled state: ignition, turbo, cargo, maintenance, or speed reaching zero.
	Terminal
)

// TurboState is the payload of a sports car.
type TurboState struct {
	Engaged bool
}

// CargoState is the payload of a truck.
type CargoState struct {
	Capacity float64 // kg, fixed at creation
	Current  float64 // kg
}

// Vehicle is a garage vehicle. Kind selects which variant payload is set:
// Turbo for KindSports, Cargo for KindTruck, neither for KindCar.
type Vehicle struct {
	ID        string
	Kind      Kind
	Model     string
	Color     string
	IsRunning bool
	Speed     float64
	MaxSpeed  float64
	History   []MaintenanceRecord
	Turbo     *TurboState
	Cargo     *CargoState
}

// CreateParams carries user input for the vehicle factory.
type CreateParams struct {
	Model         string
	Color         string
	CargoCapacity float64 // trucks only
}

// Create is the factory keyed by variant tag.
func Create(kind Kind, p CreateParams) (*Vehicle, error) {
	if !IsValidKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	model := strings.TrimSpace(p.Model)
	color := strings.TrimSpace(p.Color)
	if model == "" || color == "" {
		return nil, NewValidationError("model and color are required.")
	}
	if kind == KindTruck && (math.IsNaN(p.CargoCapacity) || p.CargoCapacity <= 0) {
		return nil, NewValidationError("invalid cargo capacity for truck.")
	}
	v := newVehicle(kind, uuid.NewString(), model, color)
	if v.Cargo != nil {
		v.Cargo.Capacity = p.CargoCapacity
	}
	return v, nil
}

func newVehicle(kind Kind, id, model, color string) *Vehicle {
	v := &Vehicle{
		ID:      id,
		Kind:    kind,
		Model:   model,
		Color:   color,
		History: []MaintenanceRecord{},
	}
	switch kind {
	case KindSports:
		v.MaxSpeed = SportsMaxSpeed
		v.Turbo = &TurboState{}
	case KindTruck:
		v.MaxSpeed = TruckMaxSpeed
		v.Cargo = &CargoState{}
	default:
		v.MaxSpeed = CarMaxSpeed
	}
	return v
}

func (v *Vehicle) logger() *log.Entry {
	return log.WithFields(log.Fields{"vehicle_id": v.ID, "kind": v.Kind, "model": v.Model})
}

// Start turns the engine on.
func (v *Vehicle) Start() (Change, error) {
	if v.IsRunning {
		return NoChange, ErrAlreadyRunning
	}
	v.IsRunning = true
	v.logger().Info("Vehicle started")
	return Terminal, nil
}

// Stop turns the engine off. The vehicle must be standing still.
func (v *Vehicle) Stop() (Change, error) {
	if !v.IsRunning {
		return NoChange, ErrAlreadyStopped
	}
	if v.Speed > 0 {
		return NoChange, ErrStillMoving
	}
	v.IsRunning = false
	v.Speed = 0
	v.logger().Info("Vehicle stopped")
	return Terminal, nil
}

// Accelerate raises the speed by the variant-adjusted delta, clamped to MaxSpeed.
func (v *Vehicle) Accelerate(delta float64) (Change, error) {
	if !v.IsRunning {
		return NoChange, ErrEngineOff
	}
	if math.IsNaN(delta) || delta < 0 {
		return NoChange, ErrInvalidAmount
	}
	v.Speed = math.Min(v.Speed+v.effectiveDelta(delta), v.MaxSpeed)
	v.logger().WithField("speed", v.Speed).Debug("Speed increased")
	return Transient, nil
}

// effectiveDelta dispatches on Kind: turbo boosts, cargo attenuates.
func (v *Vehicle) effectiveDelta(delta float64) float64 {
	switch v.Kind {
	case KindSports:
		if v.Turbo != nil && v.Turbo.Engaged {
			return delta * turboBoost
		}
	case KindTruck:
		if v.Cargo != nil && v.Cargo.Capacity > 0 {
			factor := 1 - v.Cargo.Current/(v.Cargo.Capacity*2)
			return delta * math.Max(minCargoFactor, factor)
		}
	}
	return delta
}

// Brake lowers the speed, floored at zero. Braking at zero speed does nothing.
func (v *Vehicle) Brake(delta float64) (Change, error) {
	if v.Speed == 0 {
		return NoChange, nil
	}
	if math.IsNaN(delta) || delta < 0 {
		return NoChange, ErrInvalidAmount
	}
	v.Speed = math.Max(0, v.Speed-delta)
	v.logger().WithField("speed", v.Speed).Debug("Speed reduced")
	if v.Speed == 0 {
		return Terminal, nil
	}
	return Transient, nil
}

// Honk is pure noise.
func (v *Vehicle) Honk() (Change, error) {
	v.logger().Info("Beep beep!")
	return NoChange, nil
}

// EngageTurbo raises the sports car cap to SportsTurboMaxSpeed.
func (v *Vehicle) EngageTurbo() (Change, error) {
	if v.Turbo == nil {
		return NoChange, ErrNoTurbo
	}
	if !v.IsRunning {
		return NoChange, ErrEngineOff
	}
	if v.Turbo.Engaged {
		return NoChange, ErrTurboAlreadyOn
	}
	v.Turbo.Engaged = true
	v.MaxSpeed = SportsTurboMaxSpeed
	v.logger().Info("Turbo engaged")
	return Terminal, nil
}

// DisengageTurbo restores the SportsMaxSpeed cap. A speed above the new cap is
// left as is and only reported.
func (v *Vehicle) DisengageTurbo() (Change, error) {
	if v.Turbo == nil {
		return NoChange, ErrNoTurbo
	}
	if !v.IsRunning {
		return NoChange, ErrEngineOff
	}
	if !v.Turbo.Engaged {
		return NoChange, ErrTurboAlreadyOff
	}
	v.Turbo.Engaged = false
	v.MaxSpeed = SportsMaxSpeed
	if v.Speed > v.MaxSpeed {
		v.logger().WithFields(log.Fields{
			"speed":     v.Speed,
			"max_speed": v.MaxSpeed,
		}).Warn("Speed above limit after turbo disengaged")
	}
	v.logger().Info("Turbo disengaged")
	return Terminal, nil
}

// Load adds cargo to a stopped truck.
func (v *Vehicle) Load(amount float64) (Change, error) {
	if err := v.checkCargoOp(amount); err != nil {
		return NoChange, err
	}
	if v.Cargo.Current+amount > v.Cargo.Capacity {
		return NoChange, fmt.Errorf("%w (%g kg)", ErrOverCapacity, v.Cargo.Capacity)
	}
	v.Cargo.Current += amount
	v.logger().WithField("cargo", v.Cargo.Current).Info("Truck loaded")
	return Terminal, nil
}

// Unload removes cargo from a stopped truck.
func (v *Vehicle) Unload(amount float64) (Change, error) {
	if err := v.checkCargoOp(amount); err != nil {
		return NoChange, err
	}
	if v.Cargo.Current-amount < 0 {
		return NoChange, fmt.Errorf("%w: %g kg requested, %g kg on board", ErrNotEnoughCargo, amount, v.Cargo.Current)
	}
	v.Cargo.Current -= amount
	v.logger().WithField("cargo", v.Cargo.Current).Info("Truck unloaded")
	return Terminal, nil
}

func (v *Vehicle) checkCargoOp(amount float64) error {
	if v.Cargo == nil {
		return ErrNoCargo
	}
	if v.IsRunning {
		return ErrCargoWhileRunning
	}
	if math.IsNaN(amount) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// AddMaintenance validates rec against today and inserts it in date order.
func (v *Vehicle) AddMaintenance(rec MaintenanceRecord) (Change, error) {
	return v.AddMaintenanceAt(rec, time.Now())
}

// AddMaintenanceAt is AddMaintenance with an explicit clock.
func (v *Vehicle) AddMaintenanceAt(rec MaintenanceRecord, now time.Time) (Change, error) {
	if err := rec.ValidateAt(now); err != nil {
		return NoChange, err
	}
	v.History = append(v.History, rec)
	sortHistory(v.History)
	v.logger().WithField("service_type", rec.ServiceType).Info("Maintenance added")
	return Terminal, nil
}

// HistorySummary buckets the maintenance history for display.
type HistorySummary struct {
	Completed []string
	Upcoming  []string
	// Overdue holds scheduled entries dated before today or with unparsable dates.
	Overdue []string
}

// Summarize partitions the history relative to the calendar day of now.
func (v *Vehicle) Summarize(now time.Time) HistorySummary {
	today := StartOfDay(now)
	s := HistorySummary{Completed: []string{}, Upcoming: []string{}, Overdue: []string{}}
	for _, m := range v.History {
		switch m.Status {
		case StatusCompleted:
			s.Completed = append(s.Completed, m.Format())
		case StatusScheduled:
			if d, ok := m.DateOrNull(); ok && !d.Before(today) {
				s.Upcoming = append(s.Upcoming, m.Format())
			} else {
				s.Overdue = append(s.Overdue, m.Format())
			}
		}
	}
	return s
}

// Describe renders the vehicle details panel.
func (v *Vehicle) Describe() string {
	status := "Off"
	if v.IsRunning {
		status = "On"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\nModel: %s\nColor: %s\nStatus: %s\nSpeed: %g km/h\nMax speed: %g km/h",
		v.ID, v.Model, v.Color, status, v.Speed, v.MaxSpeed)
	if v.Turbo != nil {
		turbo := "Disengaged"
		if v.Turbo.Engaged {
			turbo = "Engaged"
		}
		fmt.Fprintf(&b, "\nTurbo: %s", turbo)
	}
	if v.Cargo != nil {
		fmt.Fprintf(&b, "\nCapacity: %g kg\nCurrent cargo: %g kg", v.Cargo.Capacity, v.Cargo.Current)
	}
	return b.String()
}

// ListLabel is the one-line entry shown in the vehicle list.
func (v *Vehicle) ListLabel() string {
	kind := string(v.Kind)
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	return fmt.Sprintf("%s: %s (%s)", kind, v.Model, v.Color)
}
