package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredVehicle_Validate(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	valid := RegisteredVehicle{Placa: "abc1d23", Marca: "VW", Modelo: "Fox", Ano: 2012}
	assert.NoError(t, valid.Validate(now))

	next := valid
	next.Ano = 2026
	assert.NoError(t, next.Validate(now), "next year's models are accepted")

	tests := []struct {
		name string
		v    RegisteredVehicle
		want []string
	}{
		{"future year", RegisteredVehicle{Placa: "X", Marca: "VW", Modelo: "Fox", Ano: 2027},
			[]string{"O ano de fabricação não pode ser no futuro."}},
		{"too old", RegisteredVehicle{Placa: "X", Marca: "VW", Modelo: "Fox", Ano: 1899},
			[]string{"O ano de fabricação deve ser no mínimo 1900."}},
		{"everything missing", RegisteredVehicle{Placa: "  "},
			[]string{"A placa é obrigatória.", "A marca é obrigatória.", "O modelo é obrigatório.", "O ano é obrigatório."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate(now)
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.want, ve.Messages)
		})
	}
}

func TestVehiclePatch_ValidatesSuppliedFieldsOnly(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	cor := "prata"
	p := VehiclePatch{Cor: &cor}
	assert.NoError(t, p.Validate(now))
	assert.False(t, p.IsEmpty())

	ano := 1800
	blank := " "
	p = VehiclePatch{Ano: &ano, Modelo: &blank}
	err := p.Validate(now)
	require.Error(t, err)
	assert.Equal(t, "O modelo é obrigatório. O ano de fabricação deve ser no mínimo 1900.", err.Error())

	assert.True(t, (&VehiclePatch{}).IsEmpty())
}

func TestNormalizePlate(t *testing.T) {
	v := RegisteredVehicle{Placa: "  abc1d23 "}
	v.Normalize()
	assert.Equal(t, "ABC1D23", v.Placa)
}

func TestMergeTips(t *testing.T) {
	general := []Tip{{ID: 1, Dica: "a"}, {ID: 2, Dica: "b"}}
	specific := []Tip{{ID: 2, Dica: "dup"}, {ID: 10, Dica: "c"}}

	merged := MergeTips(general, specific)
	assert.Equal(t, []Tip{{ID: 1, Dica: "a"}, {ID: 2, Dica: "b"}, {ID: 10, Dica: "c"}}, merged)
	assert.Empty(t, MergeTips(nil, nil))
}
