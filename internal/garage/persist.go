package garage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/notify"
)

// Save writes the whole fleet under StorageKey. On failure the operator is
// notified and the error returned; in-memory state is left as is.
func (g *Garage) Save(ctx context.Context) error {
	g.mu.Lock()
	snapshot := make([]models.PersistedVehicle, 0, len(g.vehicles))
	for _, v := range g.vehicles {
		snapshot = append(snapshot, v.Snapshot())
	}
	g.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err == nil {
		err = g.slot.Set(StorageKey, data)
	}
	if err != nil {
		g.log.WithError(err).Error("Failed to save garage")
		g.report(ctx, notify.EventSaveFailed, "Failed to save garage: "+err.Error())
		return fmt.Errorf("save garage: %w", err)
	}
	g.log.WithField("vehicles", len(snapshot)).Debug("Garage saved")
	return nil
}

// Load restores the fleet from StorageKey. An absent key yields an empty
// fleet. A corrupt blob, or an entry breaking the vehicle invariants, is
// reported, the fleet reset and the key deleted.
// Entries with an unknown kind are dropped with a warning.
func (g *Garage) Load(ctx context.Context) error {
	data, ok, err := g.slot.Get(StorageKey)
	if err != nil {
		g.log.WithError(err).Error("Failed to read garage")
		g.report(ctx, notify.EventLoadFailed, "Failed to read garage: "+err.Error())
		g.reset()
		return fmt.Errorf("load garage: %w", err)
	}
	if !ok {
		g.reset()
		g.log.Info("No saved garage, starting empty")
		g.refresh()
		return nil
	}

	var persisted []models.PersistedVehicle
	if err := json.Unmarshal(data, &persisted); err != nil {
		return g.discard(ctx, err)
	}

	vehicles := make([]*models.Vehicle, 0, len(persisted))
	for _, p := range persisted {
		v, err := models.FromPersisted(p)
		if errors.Is(err, models.ErrUnknownKind) {
			g.log.WithFields(log.Fields{"vehicle_id": p.ID, "kind": p.Kind}).Warn("Skipping vehicle with unknown kind")
			continue
		}
		if err != nil {
			return g.discard(ctx, err)
		}
		vehicles = append(vehicles, v)
	}

	g.mu.Lock()
	g.vehicles = vehicles
	g.selectedID = ""
	g.generation++
	g.mu.Unlock()

	g.log.WithField("vehicles", len(vehicles)).Info("Garage loaded")
	g.refresh()
	g.Remind(ctx)
	return nil
}

// discard handles an unusable blob: report it, empty the fleet and delete the key.
func (g *Garage) discard(ctx context.Context, cause error) error {
	g.log.WithError(cause).Error("Corrupt garage data, discarding")
	g.report(ctx, notify.EventLoadFailed, "Saved garage data was corrupt and has been reset.")
	g.reset()
	if err := g.slot.Delete(StorageKey); err != nil {
		g.log.WithError(err).Error("Failed to delete corrupt garage data")
	}
	g.refresh()
	return fmt.Errorf("load garage: %w", cause)
}

func (g *Garage) reset() {
	g.mu.Lock()
	g.vehicles = []*models.Vehicle{}
	g.selectedID = ""
	g.generation++
	g.mu.Unlock()
}

func (g *Garage) report(ctx context.Context, eventType, msg string) {
	err := g.notifier.Notify(ctx, notify.Event{Type: eventType, Message: msg, Time: g.now()})
	if err != nil {
		g.log.WithError(err).Warn("Failed to notify operator")
	}
}
