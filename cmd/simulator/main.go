package main

import (
	"context"
	"math/rand"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/smart-garage/internal/client"
	"github.com/ukydev/smart-garage/internal/config"
	"github.com/ukydev/smart-garage/internal/garage"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/notify"
	"github.com/ukydev/smart-garage/internal/weather"
)

// forecastDays is how many days of the summary are shown.
const forecastDays = 5

// Backend is the slice of the API client the driver uses.
type Backend interface {
	FetchTips(ctx context.Context, kind models.Kind) ([]models.Tip, error)
	FetchForecast(ctx context.Context, city string) (*weather.Forecast, error)
}

// Details is what the driver shows for the selected vehicle.
type Details struct {
	Selection  garage.Selection
	Info       string
	Summary    models.HistorySummary
	Tips       []models.Tip
	Forecast   []weather.DaySummary
	Highlights []weather.Highlight
}

// Driver runs the garage headless: it drives random operations, rotates the
// selection and loads tips and forecast for whichever vehicle is selected.
type Driver struct {
	garage  *garage.Garage
	backend Backend
	city    string
	rng     *rand.Rand
	now     func() time.Time

	mu      sync.Mutex
	details *Details
	wg      sync.WaitGroup
}

func NewDriver(g *garage.Garage, backend Backend, city string, seed int64) *Driver {
	return &Driver{
		garage:  g,
		backend: backend,
		city:    city,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
	}
}

var demoFleet = []struct {
	kind   models.Kind
	params models.CreateParams
}{
	{models.KindCar, models.CreateParams{Model: "Fox", Color: "prata"}},
	{models.KindSports, models.CreateParams{Model: "911", Color: "vermelho"}},
	{models.KindTruck, models.CreateParams{Model: "FH", Color: "azul", CargoCapacity: 10000}},
}

// Seed creates the demo fleet when the garage is empty.
func (d *Driver) Seed(ctx context.Context) error {
	if len(d.garage.Vehicles()) > 0 {
		return nil
	}
	for _, demo := range demoFleet {
		v, err := d.garage.Create(ctx, demo.kind, demo.params)
		if err != nil {
			return err
		}
		next := d.now().AddDate(0, 0, 1).Format(models.DateLayout)
		if _, err := d.garage.AddMaintenance(ctx, v.ID, models.NewScheduled(next, "Revisão", nil, "")); err != nil {
			return err
		}
	}
	log.WithField("vehicles", len(demoFleet)).Info("Seeded demo fleet")
	return nil
}

// pickOp chooses an operation that fits the vehicle's current state.
func (d *Driver) pickOp(v *models.Vehicle) (string, garage.Op) {
	if !v.IsRunning {
		if v.Cargo != nil && d.rng.Intn(2) == 0 {
			if d.rng.Intn(2) == 0 {
				return "load", garage.Load(float64(500 + d.rng.Intn(3000)))
			}
			return "unload", garage.Unload(float64(500 + d.rng.Intn(3000)))
		}
		return "start", garage.Start
	}
	switch n := d.rng.Intn(10); {
	case n < 4:
		return "accelerate", garage.Accelerate(float64(10 + d.rng.Intn(40)))
	case n < 6:
		return "brake", garage.Brake(float64(10 + d.rng.Intn(40)))
	case n == 6:
		return "honk", garage.Honk
	case n == 7 && v.Turbo != nil:
		if v.Turbo.Engaged {
			if v.Speed > models.SportsMaxSpeed {
				return "brake", garage.Brake(v.Speed - models.SportsMaxSpeed)
			}
			return "turbo_off", garage.DisengageTurbo
		}
		return "turbo_on", garage.EngageTurbo
	case n == 8 && v.Speed == 0:
		return "stop", garage.Stop
	default:
		return "brake", garage.Brake(v.Speed)
	}
}

// Step applies one random operation to a random vehicle.
func (d *Driver) Step(ctx context.Context) {
	vehicles := d.garage.Vehicles()
	if len(vehicles) == 0 {
		return
	}
	v := vehicles[d.rng.Intn(len(vehicles))]
	name, op := d.pickOp(v)
	change, err := d.garage.Apply(ctx, v.ID, op)
	entry := log.WithFields(log.Fields{"vehicle": v.ListLabel(), "op": name, "change": change})
	if err != nil {
		// A rejected operation changes nothing; an applied one can still fail to save.
		if change == models.NoChange {
			entry.WithError(err).Debug("Operation rejected")
			return
		}
		entry.WithError(err).Warn("Operation applied but not saved")
		return
	}
	entry.Debug("Operation applied")
}

// SelectNext moves the selection to the next vehicle and starts loading its details.
func (d *Driver) SelectNext(ctx context.Context) {
	vehicles := d.garage.Vehicles()
	if len(vehicles) == 0 {
		return
	}
	next := 0
	if cur, _, ok := d.garage.Selected(); ok {
		for i, v := range vehicles {
			if v.ID == cur.ID {
				next = (i + 1) % len(vehicles)
				break
			}
		}
	}
	sel, err := d.garage.Select(vehicles[next].ID)
	if err != nil {
		log.WithError(err).Warn("Failed to select vehicle")
		return
	}
	v := vehicles[next]
	log.WithFields(log.Fields{
		"vehicle_id": v.ID,
		"kind":       v.Kind,
		"model":      v.Model,
		"running":    v.IsRunning,
		"speed":      v.Speed,
		"max_speed":  v.MaxSpeed,
	}).Info("Vehicle selected")
	d.load(ctx, sel, v)
}

// load fetches tips and forecast concurrently. Results are dropped when the
// selection changed while they were in flight.
func (d *Driver) load(ctx context.Context, sel garage.Selection, v *models.Vehicle) {
	details := &Details{Selection: sel, Info: v.Describe(), Summary: v.Summarize(d.now())}
	d.setDetails(details)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		tips, err := d.backend.FetchTips(ctx, v.Kind)
		if err != nil {
			log.WithError(err).WithField("kind", v.Kind).Warn("Failed to load maintenance tips")
			return
		}
		d.update(sel, func(det *Details) { det.Tips = tips })
	}()
	go func() {
		defer d.wg.Done()
		f, err := d.backend.FetchForecast(ctx, d.city)
		if err != nil {
			log.WithError(err).WithField("city", d.city).Warn("Failed to load forecast")
			return
		}
		days := weather.FirstDays(weather.Summarize(*f), forecastDays)
		d.update(sel, func(det *Details) {
			det.Forecast = days
			det.Highlights = weather.Highlights(days)
		})
	}()
}

func (d *Driver) setDetails(det *Details) {
	d.mu.Lock()
	d.details = det
	d.mu.Unlock()
}

func (d *Driver) update(sel garage.Selection, fn func(*Details)) {
	if !d.garage.IsCurrent(sel) {
		log.WithField("vehicle_id", sel.VehicleID).Debug("Discarding stale result")
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.details == nil || d.details.Selection != sel {
		return
	}
	fn(d.details)
}

// Details returns a copy of the current panel contents.
func (d *Driver) Details() (Details, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.details == nil {
		return Details{}, false
	}
	return *d.details, true
}

// Wait blocks until in-flight detail loads finish.
func (d *Driver) Wait() {
	d.wg.Wait()
}

// Run ticks until ctx is done. The selection rotates every selectEvery ticks
// and the reminder scan runs every remindEvery ticks.
func (d *Driver) Run(ctx context.Context, interval time.Duration, selectEvery, remindEvery int) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	d.SelectNext(ctx)
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			d.Wait()
			return
		case <-tick.C:
		}
		d.Step(ctx)
		if selectEvery > 0 && n%selectEvery == 0 {
			d.SelectNext(ctx)
		}
		if remindEvery > 0 && n%remindEvery == 0 {
			d.garage.Remind(ctx)
		}
	}
}

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slot, err := garage.NewFileSlot(cfg.GarageDataDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to open garage storage")
	}

	notifiers := notify.Multi{notify.NewLogNotifier()}
	if cfg.MQTTBroker != "" {
		n, mqttClient, err := notify.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID+"-sim", cfg.MQTTTopic)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable, events will only be logged")
		} else {
			defer mqttClient.Disconnect(250)
			notifiers = append(notifiers, n)
		}
	}

	g := garage.New(slot,
		garage.WithNotifier(notifiers),
		garage.WithRefresh(func(vs []*models.Vehicle) {
			log.WithField("vehicles", len(vs)).Debug("Fleet list refreshed")
		}),
	)
	if err := g.Load(ctx); err != nil {
		log.WithError(err).Warn("Starting with an empty garage")
	}

	api := client.New(cfg.BackendURL)
	if state, err := api.DBStatus(ctx); err != nil {
		log.WithError(err).Warn("Backend unreachable")
	} else {
		log.WithField("db", state.Message()).Info("Backend database status")
	}

	driver := NewDriver(g, api, cfg.SimCity, time.Now().UnixNano())
	if err := driver.Seed(ctx); err != nil {
		log.WithError(err).Fatal("Failed to seed garage")
	}

	log.WithFields(log.Fields{
		"backend":  cfg.BackendURL,
		"city":     cfg.SimCity,
		"interval": cfg.SimTick,
		"data_dir": cfg.GarageDataDir,
	}).Info("Starting garage simulation")

	driver.Run(ctx, cfg.SimTick, 10, 30)
	log.Info("Simulation stopped")
}
