package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/smart-garage/internal/db"
	"github.com/ukydev/smart-garage/internal/handlers"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/tips"
)

func tipsServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalogue, err := tips.Default()
	require.NoError(t, err)
	h := handlers.NewTipsHandler(catalogue)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dicas-manutencao", h.General)
	mux.HandleFunc("GET /api/dicas-manutencao/{tipo}", h.ByKind)
	return httptest.NewServer(mux)
}

func TestFetchTips_MergesGeneralAndKind(t *testing.T) {
	srv := tipsServer(t)
	defer srv.Close()

	got, err := New(srv.URL).FetchTips(context.Background(), models.KindSports)
	require.NoError(t, err)
	assert.Equal(t, []models.Tip{
		{ID: 1, Dica: "Verifique o nível do óleo regularmente."},
		{ID: 2, Dica: "Calibre os pneus semanalmente."},
		{ID: 15, Dica: "Use somente gasolina de alta octanagem."},
	}, got)
}

func TestFetchTips_UnknownKindIsEmpty(t *testing.T) {
	srv := tipsServer(t)
	defer srv.Close()

	got, err := New(srv.URL).FetchTips(context.Background(), models.Kind("moto"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFetchTips_DeduplicatesByID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dicas-manutencao", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"dica":"a"},{"id":2,"dica":"b"}]`))
	})
	mux.HandleFunc("GET /api/dicas-manutencao/{tipo}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":2,"dica":"dup"},{"id":3,"dica":"c"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := New(srv.URL).FetchTips(context.Background(), models.KindCar)
	require.NoError(t, err)
	assert.Equal(t, []models.Tip{{ID: 1, Dica: "a"}, {ID: 2, Dica: "b"}, {ID: 3, Dica: "c"}}, got)
}

func TestFetchTips_EitherFailureFailsAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dicas-manutencao", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"dica":"a"}]`))
	})
	mux.HandleFunc("GET /api/dicas-manutencao/{tipo}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := New(srv.URL).FetchTips(context.Background(), models.KindCar)
	assert.Nil(t, got, "no partial result")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestFetchForecast(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/previsao/{cidade}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("cidade") != "São Paulo" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"city not found"}`))
			return
		}
		w.Write([]byte(`{"city":{"name":"São Paulo"},"list":[{"dt_txt":"2025-03-10 12:00:00","main":{"temp":25},"weather":[{"id":800,"description":"céu limpo","icon":"01d"}]}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	f, err := c.FetchForecast(context.Background(), "São Paulo")
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", f.City.Name)
	require.Len(t, f.List, 1)

	_, err = c.FetchForecast(context.Background(), "Atlantis")
	assert.True(t, IsNotFound(err))
	assert.ErrorContains(t, err, "city not found")
}

func TestVehicleCRUD(t *testing.T) {
	var created map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/veiculos", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"65f000000000000000000001","placa":"ABC1D23","marca":"VW","modelo":"Fox","ano":2012}`))
	})
	mux.HandleFunc("GET /api/veiculos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"65f000000000000000000001","placa":"ABC1D23","marca":"VW","modelo":"Fox","ano":2012}]`))
	})
	mux.HandleFunc("PUT /api/veiculos/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"cor": "prata"}, body)
		w.Write([]byte(`{"_id":"65f000000000000000000001","placa":"ABC1D23","marca":"VW","modelo":"Fox","ano":2012,"cor":"prata"}`))
	})
	mux.HandleFunc("DELETE /api/veiculos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Veículo não encontrado."}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	v, err := c.CreateVehicle(ctx, models.RegisteredVehicle{Placa: "abc1d23", Marca: "VW", Modelo: "Fox", Ano: 2012})
	require.NoError(t, err)
	assert.Equal(t, "65f000000000000000000001", v.ID.Hex())
	assert.NotContains(t, created, "cor")
	assert.NotContains(t, created, "_id")

	list, err := c.ListVehicles(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	cor := "prata"
	updated, err := c.UpdateVehicle(ctx, v.ID.Hex(), models.VehiclePatch{Cor: &cor})
	require.NoError(t, err)
	assert.Equal(t, "prata", updated.Cor)

	err = c.DeleteVehicle(ctx, v.ID.Hex())
	assert.True(t, IsNotFound(err))
	assert.ErrorContains(t, err, "Veículo não encontrado.")
}

func TestDBStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"connectionStatus":2,"statusMessage":"Conectando"}`))
	}))
	defer srv.Close()

	state, err := New(srv.URL).DBStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, db.Connecting, state)
}
