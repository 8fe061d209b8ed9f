package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/smart-garage/internal/db"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/tips"
	"github.com/ukydev/smart-garage/internal/weather"
)

func TestTipsHandler(t *testing.T) {
	catalogue, err := tips.Default()
	require.NoError(t, err)
	handler := NewTipsHandler(catalogue)

	t.Run("general tips", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.General(w, httptest.NewRequest("GET", "/api/dicas-manutencao", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var out []models.Tip
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Len(t, out, 2)
	})

	t.Run("kind lookup is case-insensitive", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/dicas-manutencao/Caminhao", nil)
		req.SetPathValue("tipo", "Caminhao")
		w := httptest.NewRecorder()
		handler.ByKind(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var out []models.Tip
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, []models.Tip{{ID: 30, Dica: "Inspecione o sistema de freios a ar diariamente."}}, out)
	})

	t.Run("unknown kind", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/dicas-manutencao/moto", nil)
		req.SetPathValue("tipo", "moto")
		w := httptest.NewRecorder()
		handler.ByKind(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Nenhuma dica específica encontrada para o tipo: moto", decodeBody(t, w)["error"])
	})
}

// MockForecaster is a mock implementation of Forecaster
type MockForecaster struct {
	mock.Mock
}

func (m *MockForecaster) Forecast(ctx context.Context, city string) (json.RawMessage, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func TestWeatherHandler(t *testing.T) {
	newReq := func(city string) *http.Request {
		req := httptest.NewRequest("GET", "/api/previsao/"+url.PathEscape(city), nil)
		req.SetPathValue("cidade", city)
		return req
	}

	tests := []struct {
		name   string
		city   string
		raw    json.RawMessage
		err    error
		status int
		body   string
	}{
		{"success", "Curitiba", json.RawMessage(`{"list":[]}`), nil, http.StatusOK, `{"list":[]}`},
		{"missing key", "Curitiba", nil, weather.ErrNoAPIKey, http.StatusInternalServerError, `{"error":"Chave da API OpenWeatherMap não configurada."}`},
		{"upstream error forwarded", "Atlantis", nil, &weather.UpstreamError{Status: 404, Message: "city not found"}, http.StatusNotFound, `{"error":"city not found"}`},
		{"other failure", "Curitiba", nil, errors.New("boom"), http.StatusInternalServerError, `{"error":"Erro ao buscar previsão do tempo."}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := new(MockForecaster)
			if tt.raw != nil {
				f.On("Forecast", mock.Anything, tt.city).Return(tt.raw, nil)
			} else {
				f.On("Forecast", mock.Anything, tt.city).Return(nil, tt.err)
			}
			w := httptest.NewRecorder()
			NewWeatherHandler(f).Forecast(w, newReq(tt.city))

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}

	t.Run("blank city", func(t *testing.T) {
		f := new(MockForecaster)
		w := httptest.NewRecorder()
		NewWeatherHandler(f).Forecast(w, newReq(" "))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.AssertNotCalled(t, "Forecast", mock.Anything, mock.Anything)
	})
}

type fixedState db.ConnState

func (s fixedState) State() db.ConnState { return db.ConnState(s) }

func TestStatusHandler(t *testing.T) {
	tests := []struct {
		state   db.ConnState
		status  int
		message string
	}{
		{db.Disconnected, http.StatusServiceUnavailable, "Desconectado"},
		{db.Connected, http.StatusOK, "Conectado"},
		{db.Connecting, http.StatusServiceUnavailable, "Conectando"},
		{db.Disconnecting, http.StatusServiceUnavailable, "Desconectando"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewStatusHandler(fixedState(tt.state)).DBStatus(w, httptest.NewRequest("GET", "/api/db-status", nil))

			assert.Equal(t, tt.status, w.Code)
			out := decodeBody(t, w)
			assert.Equal(t, float64(tt.state), out["connectionStatus"])
			assert.Equal(t, tt.message, out["statusMessage"])
		})
	}

	t.Run("no reporter", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewStatusHandler(nil).DBStatus(w, httptest.NewRequest("GET", "/api/db-status", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
