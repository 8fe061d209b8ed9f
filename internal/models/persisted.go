package models

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// PersistedVehicle is the plain JSON shape of a vehicle in the fleet blob.
type PersistedVehicle struct {
	ID                 string              `json:"id"`
	Kind               Kind                `json:"kind"`
	Model              string              `json:"model"`
	Color              string              `json:"color"`
	IsRunning          bool                `json:"isRunning"`
	Speed              float64             `json:"speed"`
	MaxSpeed           float64             `json:"maxSpeed"`
	TurboEngaged       *bool               `json:"turboEngaged,omitempty"`
	CargoCapacity      *float64            `json:"cargoCapacity,omitempty"`
	CurrentCargo       *float64            `json:"currentCargo,omitempty"`
	MaintenanceHistory []MaintenanceRecord `json:"maintenanceHistory"`
}

// Snapshot copies the vehicle into its persisted shape. The history slice is
// copied so later mutations do not leak into an in-flight save.
func (v *Vehicle) Snapshot() PersistedVehicle {
	p := PersistedVehicle{
		ID:                 v.ID,
		Kind:               v.Kind,
		Model:              v.Model,
		Color:              v.Color,
		IsRunning:          v.IsRunning,
		Speed:              v.Speed,
		MaxSpeed:           v.MaxSpeed,
		MaintenanceHistory: append([]MaintenanceRecord{}, v.History...),
	}
	if v.Turbo != nil {
		engaged := v.Turbo.Engaged
		p.TurboEngaged = &engaged
	}
	if v.Cargo != nil {
		capacity, current := v.Cargo.Capacity, v.Cargo.Current
		p.CargoCapacity = &capacity
		p.CurrentCargo = &current
	}
	return p
}

// FromPersisted rebuilds a vehicle of the variant named by p.Kind. Unknown
// kinds return ErrUnknownKind so the caller can skip the entry; entries that
// break the vehicle invariants return ErrCorruptVehicle.
func FromPersisted(p PersistedVehicle) (*Vehicle, error) {
	if !IsValidKind(p.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("%w: vehicle %q: %s", ErrCorruptVehicle, p.ID, err.Error())
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	v := newVehicle(p.Kind, id, p.Model, p.Color)
	v.IsRunning = p.IsRunning
	v.Speed = p.Speed
	if v.Turbo != nil && p.TurboEngaged != nil && *p.TurboEngaged {
		v.Turbo.Engaged = true
		v.MaxSpeed = SportsTurboMaxSpeed
	}
	if v.Cargo != nil {
		if p.CargoCapacity != nil {
			v.Cargo.Capacity = *p.CargoCapacity
		}
		if p.CurrentCargo != nil {
			v.Cargo.Current = *p.CurrentCargo
		}
	}
	for _, m := range p.MaintenanceHistory {
		v.History = append(v.History, MaintenanceRecord{
			Date:        m.Date,
			ServiceType: m.ServiceType,
			Cost:        m.Cost,
			Description: m.Description,
			Status:      m.Status,
		})
	}
	return v, nil
}

// check rejects states no sequence of operations can produce. Speed above
// MaxSpeed is allowed: disengaging the turbo at speed leaves it there.
func (p PersistedVehicle) check() error {
	if p.MaintenanceHistory == nil {
		return fmt.Errorf("missing maintenance history")
	}
	if math.IsNaN(p.Speed) || math.IsInf(p.Speed, 0) || p.Speed < 0 {
		return fmt.Errorf("invalid speed %g", p.Speed)
	}
	if p.Kind != KindTruck {
		return nil
	}
	if p.CargoCapacity == nil || math.IsNaN(*p.CargoCapacity) || *p.CargoCapacity <= 0 {
		return fmt.Errorf("invalid cargo capacity")
	}
	if p.CurrentCargo != nil {
		c := *p.CurrentCargo
		if math.IsNaN(c) || c < 0 || c > *p.CargoCapacity {
			return fmt.Errorf("cargo %g outside [0, %g]", c, *p.CargoCapacity)
		}
	}
	return nil
}
