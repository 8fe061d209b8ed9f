package garage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/notify"
)

// StorageKey is the slot key holding the fleet blob.
const StorageKey = "minhaGaragemInteligenteB2P1A2"

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrNoSelection     = errors.New("no vehicle selected")
)

// Op is a vehicle operation run through Apply.
type Op func(v *models.Vehicle) (models.Change, error)

// Operations usable with Apply and ApplySelected.
var (
	Start          Op = (*models.Vehicle).Start
	Stop           Op = (*models.Vehicle).Stop
	Honk           Op = (*models.Vehicle).Honk
	EngageTurbo    Op = (*models.Vehicle).EngageTurbo
	DisengageTurbo Op = (*models.Vehicle).DisengageTurbo
)

func Accelerate(delta float64) Op {
	return func(v *models.Vehicle) (models.Change, error) { return v.Accelerate(delta) }
}

func Brake(delta float64) Op {
	return func(v *models.Vehicle) (models.Change, error) { return v.Brake(delta) }
}

func Load(amount float64) Op {
	return func(v *models.Vehicle) (models.Change, error) { return v.Load(amount) }
}

func Unload(amount float64) Op {
	return func(v *models.Vehicle) (models.Change, error) { return v.Unload(amount) }
}

// Selection identifies the vehicle selected at a point in time. Async work
// carries it and drops its result once IsCurrent reports false.
type Selection struct {
	VehicleID  string
	Generation uint64
}

// Garage owns the fleet, the current selection and the persisted mirror.
type Garage struct {
	mu         sync.Mutex
	slot       Slot
	notifier   notify.Notifier
	log        *log.Entry
	now        func() time.Time
	onRefresh  func([]*models.Vehicle)
	vehicles   []*models.Vehicle
	selectedID string
	generation uint64
}

// Option configures a Garage.
type Option func(*Garage)

func WithNotifier(n notify.Notifier) Option {
	return func(g *Garage) { g.notifier = n }
}

func WithLogger(l *log.Entry) Option {
	return func(g *Garage) { g.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(g *Garage) { g.now = now }
}

// WithRefresh registers a hook run after the fleet is (re)loaded or its membership changes.
func WithRefresh(fn func([]*models.Vehicle)) Option {
	return func(g *Garage) { g.onRefresh = fn }
}

// New returns an empty garage persisting to slot. Call Load to restore a saved fleet.
func New(slot Slot, opts ...Option) *Garage {
	g := &Garage{
		slot:     slot,
		vehicles: []*models.Vehicle{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	if g.log == nil {
		g.log = log.WithField("component", "garage")
	}
	if g.notifier == nil {
		g.notifier = &notify.LogNotifier{Log: g.log}
	}
	return g
}

// Create builds a vehicle, adds it to the fleet and saves. The vehicle is
// returned even when the save fails.
func (g *Garage) Create(ctx context.Context, kind models.Kind, p models.CreateParams) (*models.Vehicle, error) {
	v, err := models.Create(kind, p)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.vehicles = append(g.vehicles, v)
	g.mu.Unlock()

	g.log.WithFields(log.Fields{"vehicle_id": v.ID, "kind": v.Kind}).Info("Vehicle created")
	g.refresh()
	return v, g.Save(ctx)
}

// Remove deletes a vehicle. Removing the selected vehicle clears the selection.
func (g *Garage) Remove(ctx context.Context, id string) error {
	g.mu.Lock()
	idx := g.indexLocked(id)
	if idx < 0 {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	g.vehicles = append(g.vehicles[:idx], g.vehicles[idx+1:]...)
	if g.selectedID == id {
		g.selectedID = ""
		g.generation++
	}
	g.mu.Unlock()

	g.log.WithField("vehicle_id", id).Info("Vehicle removed")
	g.refresh()
	return g.Save(ctx)
}

func (g *Garage) indexLocked(id string) int {
	for i, v := range g.vehicles {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// Get looks up a vehicle by id.
func (g *Garage) Get(id string) (*models.Vehicle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.indexLocked(id); i >= 0 {
		return g.vehicles[i], true
	}
	return nil, false
}

// Vehicles returns the fleet in insertion order.
func (g *Garage) Vehicles() []*models.Vehicle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*models.Vehicle(nil), g.vehicles...)
}

// Select makes id the selected vehicle and issues a fresh selection token.
func (g *Garage) Select(id string) (Selection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.indexLocked(id) < 0 {
		return Selection{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	g.selectedID = id
	g.generation++
	return Selection{VehicleID: id, Generation: g.generation}, nil
}

// Selected returns the selected vehicle and its current token.
func (g *Garage) Selected() (*models.Vehicle, Selection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sel := Selection{VehicleID: g.selectedID, Generation: g.generation}
	if g.selectedID == "" {
		return nil, sel, false
	}
	i := g.indexLocked(g.selectedID)
	if i < 0 {
		return nil, sel, false
	}
	return g.vehicles[i], sel, true
}

// IsCurrent reports whether sel still names the active selection.
func (g *Garage) IsCurrent(sel Selection) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sel.Generation == g.generation && sel.VehicleID == g.selectedID && sel.VehicleID != ""
}

// Apply runs op against vehicle id and saves when the result is Terminal.
// A save failure is returned alongside the change; the in-memory effect stays.
func (g *Garage) Apply(ctx context.Context, id string, op Op) (models.Change, error) {
	g.mu.Lock()
	i := g.indexLocked(id)
	if i < 0 {
		g.mu.Unlock()
		return models.NoChange, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	change, err := op(g.vehicles[i])
	g.mu.Unlock()
	if err != nil {
		return change, err
	}
	if change == models.Terminal {
		if err := g.Save(ctx); err != nil {
			return change, err
		}
	}
	return change, nil
}

// ApplySelected is Apply on the selected vehicle.
func (g *Garage) ApplySelected(ctx context.Context, op Op) (models.Change, error) {
	g.mu.Lock()
	id := g.selectedID
	g.mu.Unlock()
	if id == "" {
		return models.NoChange, ErrNoSelection
	}
	return g.Apply(ctx, id, op)
}

// AddMaintenance validates rec against the garage clock and adds it to vehicle id.
func (g *Garage) AddMaintenance(ctx context.Context, id string, rec models.MaintenanceRecord) (models.Change, error) {
	now := g.now()
	return g.Apply(ctx, id, func(v *models.Vehicle) (models.Change, error) {
		return v.AddMaintenanceAt(rec, now)
	})
}

func (g *Garage) refresh() {
	if g.onRefresh == nil {
		return
	}
	g.onRefresh(g.Vehicles())
}
