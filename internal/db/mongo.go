package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/smart-garage/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VehiclesCollection is the name of the registered vehicle collection.
const VehiclesCollection = "veiculos"

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrDuplicatePlate  = errors.New("vehicle with this plate already exists")
)

// NewClient configures a client without waiting for the server. The driver
// connects lazily; the tracker, when given, follows the state from heartbeats.
func NewClient(ctx context.Context, uri string, tracker *StateTracker) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(10 * time.Second)
	if tracker != nil {
		tracker.Set(Connecting)
		opts.SetServerMonitor(tracker.ServerMonitor())
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		if tracker != nil {
			tracker.Set(Disconnected)
		}
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	return client, nil
}

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string, tracker *StateTracker) (*mongo.Client, error) {
	client, err := NewClient(ctx, uri, tracker)
	if err != nil {
		return nil, err
	}
	if err := Ping(ctx, client, tracker); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Ping verifies the connection and records the outcome on the tracker.
func Ping(ctx context.Context, client *mongo.Client, tracker *StateTracker) error {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := client.Ping(pingCtx, nil)
	if tracker != nil {
		if err != nil {
			tracker.Set(Disconnected)
		} else {
			tracker.Set(Connected)
		}
	}
	if err != nil {
		return fmt.Errorf("mongo.Ping error: %w", err)
	}
	return nil
}

// DisconnectMongo closes the client, reporting Disconnecting while it drains.
func DisconnectMongo(ctx context.Context, client *mongo.Client, tracker *StateTracker) error {
	if client == nil {
		return nil
	}
	if tracker != nil {
		tracker.Set(Disconnecting)
		defer tracker.Set(Disconnected)
	}
	return client.Disconnect(ctx)
}

// MongoCollection wraps a MongoDB collection for registered vehicle operations.
type MongoCollection struct {
	Collection *mongo.Collection
	now        func() time.Time
}

// NewMongoCollection wraps coll.
func NewMongoCollection(coll *mongo.Collection) *MongoCollection {
	return &MongoCollection{Collection: coll}
}

func (c *MongoCollection) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now().UTC()
}

// EnsureIndexes creates the unique index on placa.
func (c *MongoCollection) EnsureIndexes(ctx context.Context) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "placa", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create placa index: %w", err)
	}
	return nil
}

// mongoVehicleCursor wraps a MongoDB cursor for vehicle queries.
type mongoVehicleCursor struct {
	cursor *mongo.Cursor
}

// All retrieves all results from the cursor.
func (m *mongoVehicleCursor) All(ctx context.Context, out interface{}) error {
	return m.cursor.All(ctx, out)
}

// Close closes the cursor.
func (m *mongoVehicleCursor) Close(ctx context.Context) error {
	return m.cursor.Close(ctx)
}

// InsertVehicle normalizes the plate, stamps ids and timestamps and inserts the vehicle.
func (c *MongoCollection) InsertVehicle(ctx context.Context, vehicle *models.RegisteredVehicle) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	vehicle.Normalize()
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	now := c.clock()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, vehicle)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicatePlate
	}
	return err
}

// FindVehicles queries vehicle records from the collection.
func (c *MongoCollection) FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (VehicleCursor, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &mongoVehicleCursor{cursor: cursor}, nil
}

// UpdateVehicle applies the supplied fields and returns the updated document.
func (c *MongoCollection) UpdateVehicle(ctx context.Context, id string, patch models.VehiclePatch) (*models.RegisteredVehicle, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrVehicleNotFound, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var vehicle models.RegisteredVehicle
	err = c.Collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": patchSet(patch, c.clock())}, opts).Decode(&vehicle)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrVehicleNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicatePlate
	case err != nil:
		return nil, err
	}
	return &vehicle, nil
}

func patchSet(p models.VehiclePatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Placa != nil {
		set["placa"] = models.NormalizePlate(*p.Placa)
	}
	if p.Marca != nil {
		set["marca"] = *p.Marca
	}
	if p.Modelo != nil {
		set["modelo"] = *p.Modelo
	}
	if p.Ano != nil {
		set["ano"] = *p.Ano
	}
	if p.Cor != nil {
		set["cor"] = *p.Cor
	}
	return set
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoCollection) DeleteVehicle(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrVehicleNotFound, id)
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
