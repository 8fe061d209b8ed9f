package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/smart-garage/internal/db"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/notify"
	"go.mongodb.org/mongo-driver/bson"
)

// VehicleHandler serves CRUD over the registered vehicle collection.
type VehicleHandler struct {
	collection db.VehicleCollection
	notifier   notify.Notifier
	now        func() time.Time
}

// NewVehicleHandler creates a new vehicle handler. notifier may be nil.
func NewVehicleHandler(collection db.VehicleCollection, notifier notify.Notifier) *VehicleHandler {
	return &VehicleHandler{
		collection: collection,
		notifier:   notifier,
		now:        time.Now,
	}
}

type vehicleInput struct {
	Placa  string `json:"placa"`
	Marca  string `json:"marca"`
	Modelo string `json:"modelo"`
	Ano    int    `json:"ano"`
	Cor    string `json:"cor"`
}

// Create handles POST /api/veiculos.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Falha ao ler o corpo da requisição.")
		return
	}
	var in vehicleInput
	if err := json.Unmarshal(body, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "JSON inválido.")
		return
	}

	vehicle := models.RegisteredVehicle{Placa: in.Placa, Marca: in.Marca, Modelo: in.Modelo, Ano: in.Ano, Cor: in.Cor}
	if err := vehicle.Validate(h.now()); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.collection.InsertVehicle(r.Context(), &vehicle); err != nil {
		if errors.Is(err, db.ErrDuplicatePlate) {
			writeMessage(w, http.StatusConflict, "Veículo com esta placa já existe.")
			return
		}
		log.WithError(err).Error("Failed to create vehicle")
		writeMessage(w, http.StatusInternalServerError, "Erro interno ao criar veículo.")
		return
	}

	log.WithFields(log.Fields{"vehicle_id": vehicle.ID.Hex(), "placa": vehicle.Placa}).Info("Vehicle registered")
	h.publish(r.Context(), notify.EventVehicleCreated, "Veículo criado: "+vehicle.Placa, vehicle)
	writeJSON(w, http.StatusCreated, vehicle)
}

// List handles GET /api/veiculos.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor, err := h.collection.FindVehicles(r.Context(), bson.M{})
	if err != nil {
		log.WithError(err).Error("Failed to query vehicles")
		writeMessage(w, http.StatusInternalServerError, "Erro interno ao buscar veículos.")
		return
	}
	defer cursor.Close(r.Context())

	vehicles := []models.RegisteredVehicle{}
	if err := cursor.All(r.Context(), &vehicles); err != nil {
		log.WithError(err).Error("Failed to decode vehicles")
		writeMessage(w, http.StatusInternalServerError, "Erro interno ao buscar veículos.")
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Update handles PUT /api/veiculos/{id}. Only supplied fields are validated and written.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Falha ao ler o corpo da requisição.")
		return
	}
	var patch models.VehiclePatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "JSON inválido.")
		return
	}
	if patch.IsEmpty() {
		writeMessage(w, http.StatusBadRequest, "Nenhum campo para atualizar.")
		return
	}
	if err := patch.Validate(h.now()); err != nil {
		var ve *models.ValidationError
		if !errors.As(err, &ve) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Dados inválidos",
			"errors":  ve.Messages,
		})
		return
	}

	vehicle, err := h.collection.UpdateVehicle(r.Context(), id, patch)
	switch {
	case errors.Is(err, db.ErrVehicleNotFound):
		writeMessage(w, http.StatusNotFound, "Veículo não encontrado.")
		return
	case errors.Is(err, db.ErrDuplicatePlate):
		writeMessage(w, http.StatusConflict, "Veículo com esta placa já existe.")
		return
	case err != nil:
		log.WithError(err).WithField("vehicle_id", id).Error("Failed to update vehicle")
		writeMessage(w, http.StatusInternalServerError, "Erro interno do servidor ao tentar atualizar o veículo.")
		return
	}

	h.publish(r.Context(), notify.EventVehicleUpdated, "Veículo atualizado: "+vehicle.Placa, vehicle)
	writeJSON(w, http.StatusOK, vehicle)
}

// Delete handles DELETE /api/veiculos/{id}.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.collection.DeleteVehicle(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrVehicleNotFound):
		writeMessage(w, http.StatusNotFound, "Veículo não encontrado.")
		return
	case err != nil:
		log.WithError(err).WithField("vehicle_id", id).Error("Failed to delete vehicle")
		writeMessage(w, http.StatusInternalServerError, "Erro interno do servidor ao tentar deletar o veículo.")
		return
	}

	h.publish(r.Context(), notify.EventVehicleDeleted, fmt.Sprintf("Veículo %s deletado", id), map[string]string{"_id": id})
	writeMessage(w, http.StatusOK, "Veículo deletado com sucesso.")
}

func (h *VehicleHandler) publish(ctx context.Context, eventType, msg string, data interface{}) {
	if h.notifier == nil {
		return
	}
	err := h.notifier.Notify(ctx, notify.Event{Type: eventType, Message: msg, Data: data, Time: h.now()})
	if err != nil {
		log.WithError(err).WithField("event", eventType).Warn("Failed to publish vehicle event")
	}
}
