package db

import (
	"context"

	"github.com/ukydev/smart-garage/internal/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VehicleCollection defines the interface for registered vehicle operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.RegisteredVehicle) error
	FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (VehicleCursor, error)
	UpdateVehicle(ctx context.Context, id string, patch models.VehiclePatch) (*models.RegisteredVehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
}

// VehicleCursor defines the interface for vehicle cursor operations.
type VehicleCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// StatusReporter exposes the current database connection state.
type StatusReporter interface {
	State() ConnState
}
