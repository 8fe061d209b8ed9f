package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ukydev/smart-garage/internal/weather"
)

// Forecaster fetches a raw forecast for a city.
type Forecaster interface {
	Forecast(ctx context.Context, city string) (json.RawMessage, error)
}

// WeatherHandler proxies the forecast provider.
type WeatherHandler struct {
	forecaster Forecaster
}

// NewWeatherHandler creates a new weather handler.
func NewWeatherHandler(f Forecaster) *WeatherHandler {
	return &WeatherHandler{forecaster: f}
}

// Forecast handles GET /api/previsao/{cidade}.
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.PathValue("cidade"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "Nome da cidade é obrigatório.")
		return
	}

	raw, err := h.forecaster.Forecast(r.Context(), city)
	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, weather.ErrNoAPIKey):
		writeError(w, http.StatusInternalServerError, "Chave da API OpenWeatherMap não configurada.")
		return
	case errors.As(err, &upstream):
		writeError(w, upstream.Status, upstream.Message)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, weather.DefaultErrorMessage)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
