package garage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/notify"
)

func TestScanUpcoming_Buckets(t *testing.T) {
	fox := &models.Vehicle{ID: "1", Model: "Fox", History: []models.MaintenanceRecord{
		models.NewScheduled("2025-03-09", "Past", nil, ""),
		models.NewScheduled("2025-03-10", "Oil", nil, ""),
		models.NewScheduled("2025-03-11", "Alignment", nil, ""),
		models.NewScheduled("2025-03-12", "Later", nil, ""),
		models.NewCompleted("2025-03-10", "Done today", 10, ""),
		models.NewScheduled("garbage", "Broken", nil, ""),
	}}
	fh := &models.Vehicle{ID: "2", Model: "FH", History: []models.MaintenanceRecord{
		models.NewScheduled("2025-03-11", "Brakes", nil, ""),
	}}

	got := ScanUpcoming([]*models.Vehicle{fox, fh}, fixedNow())
	require.Len(t, got, 3)
	assert.Equal(t, Reminder{Bucket: Today, VehicleID: "1", VehicleModel: "Fox", ServiceType: "Oil", Date: "2025-03-10"}, got[0])
	assert.Equal(t, Tomorrow, got[1].Bucket)
	assert.Equal(t, "TOMORROW: Alignment for Fox", got[1].String())
	assert.Equal(t, "TOMORROW: Brakes for FH", got[2].String())
	assert.Equal(t, "TODAY: Oil for Fox", got[0].String())
}

func TestScanUpcoming_LateEvening(t *testing.T) {
	fox := &models.Vehicle{ID: "1", Model: "Fox", History: []models.MaintenanceRecord{
		models.NewScheduled("2025-03-11", "Alignment", nil, ""),
	}}
	late := fixedNow().Add(14*60*60 + 59*60) // 23:59 local
	got := ScanUpcoming([]*models.Vehicle{fox}, late)
	require.Len(t, got, 1)
	assert.Equal(t, Tomorrow, got[0].Bucket)
}

func TestGarage_RemindAggregatesOneEvent(t *testing.T) {
	ctx := context.Background()
	g, rec, _ := newTestGarage(NewMemorySlot())

	assert.Empty(t, g.Remind(ctx))
	assert.Empty(t, rec.events, "nothing due, nothing sent")

	a, err := g.Create(ctx, models.KindCar, models.CreateParams{Model: "Fox", Color: "white"})
	require.NoError(t, err)
	b, err := g.Create(ctx, models.KindSports, models.CreateParams{Model: "911", Color: "red"})
	require.NoError(t, err)
	_, err = g.AddMaintenance(ctx, a.ID, models.NewScheduled("2025-03-10", "Oil", nil, ""))
	require.NoError(t, err)
	_, err = g.AddMaintenance(ctx, b.ID, models.NewScheduled("2025-03-11", "Tires", nil, ""))
	require.NoError(t, err)

	reminders := g.Remind(ctx)
	assert.Len(t, reminders, 2)
	events := rec.ofType(notify.EventReminder)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"TODAY: Oil for Fox", "TOMORROW: Tires for 911"}, events[0].Lines)
}
