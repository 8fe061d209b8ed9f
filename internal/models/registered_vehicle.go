package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinYear is the oldest accepted manufacturing year.
const MinYear = 1900

// RegisteredVehicle is a document of the veiculos collection.
type RegisteredVehicle struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Placa     string             `bson:"placa" json:"placa"`
	Marca     string             `bson:"marca" json:"marca"`
	Modelo    string             `bson:"modelo" json:"modelo"`
	Ano       int                `bson:"ano" json:"ano"`
	Cor       string             `bson:"cor,omitempty" json:"cor,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// VehiclePatch carries the fields supplied to an update. Nil fields are left untouched.
type VehiclePatch struct {
	Placa  *string `json:"placa"`
	Marca  *string `json:"marca"`
	Modelo *string `json:"modelo"`
	Ano    *int    `json:"ano"`
	Cor    *string `json:"cor"`
}

// MaxYear is the newest accepted manufacturing year relative to now.
func MaxYear(now time.Time) int {
	return now.Year() + 1
}

// Normalize applies the stored form of the plate: trimmed and upper-cased.
func (v *RegisteredVehicle) Normalize() {
	v.Placa = NormalizePlate(v.Placa)
}

// NormalizePlate trims and upper-cases a licence plate.
func NormalizePlate(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// Validate checks every field and reports all failures at once.
func (v *RegisteredVehicle) Validate(now time.Time) error {
	var msgs []string
	if NormalizePlate(v.Placa) == "" {
		msgs = append(msgs, "A placa é obrigatória.")
	}
	if strings.TrimSpace(v.Marca) == "" {
		msgs = append(msgs, "A marca é obrigatória.")
	}
	if strings.TrimSpace(v.Modelo) == "" {
		msgs = append(msgs, "O modelo é obrigatório.")
	}
	msgs = append(msgs, yearMessages(v.Ano, now)...)
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

func yearMessages(ano int, now time.Time) []string {
	switch {
	case ano == 0:
		return []string{"O ano é obrigatório."}
	case ano < MinYear:
		return []string{fmt.Sprintf("O ano de fabricação deve ser no mínimo %d.", MinYear)}
	case ano > MaxYear(now):
		return []string{"O ano de fabricação não pode ser no futuro."}
	}
	return nil
}

// Validate checks only the supplied fields, as update validators do.
func (p *VehiclePatch) Validate(now time.Time) error {
	var msgs []string
	if p.Placa != nil && NormalizePlate(*p.Placa) == "" {
		msgs = append(msgs, "A placa é obrigatória.")
	}
	if p.Marca != nil && strings.TrimSpace(*p.Marca) == "" {
		msgs = append(msgs, "A marca é obrigatória.")
	}
	if p.Modelo != nil && strings.TrimSpace(*p.Modelo) == "" {
		msgs = append(msgs, "O modelo é obrigatório.")
	}
	if p.Ano != nil {
		msgs = append(msgs, yearMessages(*p.Ano, now)...)
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// IsEmpty reports whether the patch sets nothing.
func (p *VehiclePatch) IsEmpty() bool {
	return p.Placa == nil && p.Marca == nil && p.Modelo == nil && p.Ano == nil && p.Cor == nil
}
