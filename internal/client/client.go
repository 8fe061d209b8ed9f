package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/smart-garage/internal/db"
	"github.com/ukydev/smart-garage/internal/models"
	"github.com/ukydev/smart-garage/internal/weather"
	"golang.org/x/sync/errgroup"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the garage backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Entry
}

// New returns a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.WithField("component", "client"),
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError reads either {"error": ...} or {"message": ...}.
func apiError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := fmt.Sprintf("Erro %d", status)
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	return &APIError{Status: status, Message: msg}
}

// FetchTips requests the general and kind-specific tips together and merges
// them by id. A 404 for the kind means it has no tips; any other failure
// fails the whole call.
func (c *Client) FetchTips(ctx context.Context, kind models.Kind) ([]models.Tip, error) {
	var general, specific []models.Tip
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.do(gctx, http.MethodGet, "/api/dicas-manutencao", nil, &general)
	})
	g.Go(func() error {
		err := c.do(gctx, http.MethodGet, "/api/dicas-manutencao/"+url.PathEscape(string(kind)), nil, &specific)
		if IsNotFound(err) {
			specific = nil
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return models.MergeTips(general, specific), nil
}

// FetchForecast requests the forecast for city through the backend proxy.
func (c *Client) FetchForecast(ctx context.Context, city string) (*weather.Forecast, error) {
	var f weather.Forecast
	if err := c.do(ctx, http.MethodGet, "/api/previsao/"+url.PathEscape(city), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DBStatus returns the backend's database connection state. A 503 still carries a state.
func (c *Client) DBStatus(ctx context.Context) (db.ConnState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/db-status", nil)
	if err != nil {
		return db.Disconnected, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return db.Disconnected, err
	}
	defer resp.Body.Close()
	var out struct {
		ConnectionStatus db.ConnState `json:"connectionStatus"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return db.Disconnected, fmt.Errorf("failed to decode status: %w", err)
	}
	return out.ConnectionStatus, nil
}

// CreateVehicle registers a vehicle.
func (c *Client) CreateVehicle(ctx context.Context, v models.RegisteredVehicle) (*models.RegisteredVehicle, error) {
	in := map[string]interface{}{"placa": v.Placa, "marca": v.Marca, "modelo": v.Modelo, "ano": v.Ano}
	if v.Cor != "" {
		in["cor"] = v.Cor
	}
	var out models.RegisteredVehicle
	if err := c.do(ctx, http.MethodPost, "/api/veiculos", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVehicles returns every registered vehicle.
func (c *Client) ListVehicles(ctx context.Context) ([]models.RegisteredVehicle, error) {
	out := []models.RegisteredVehicle{}
	if err := c.do(ctx, http.MethodGet, "/api/veiculos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateVehicle sends the supplied fields of patch.
func (c *Client) UpdateVehicle(ctx context.Context, id string, patch models.VehiclePatch) (*models.RegisteredVehicle, error) {
	var out models.RegisteredVehicle
	if err := c.do(ctx, http.MethodPut, "/api/veiculos/"+url.PathEscape(id), patchBody(patch), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func patchBody(p models.VehiclePatch) map[string]interface{} {
	body := map[string]interface{}{}
	if p.Placa != nil {
		body["placa"] = *p.Placa
	}
	if p.Marca != nil {
		body["marca"] = *p.Marca
	}
	if p.Modelo != nil {
		body["modelo"] = *p.Modelo
	}
	if p.Ano != nil {
		body["ano"] = *p.Ano
	}
	if p.Cor != nil {
		body["cor"] = *p.Cor
	}
	return body
}

// DeleteVehicle removes a registered vehicle.
func (c *Client) DeleteVehicle(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/veiculos/"+url.PathEscape(id), nil, nil)
}
