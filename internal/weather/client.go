package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// ErrNoAPIKey is returned when the proxy has no upstream key configured.
var ErrNoAPIKey = errors.New("weather api key not configured")

// DefaultErrorMessage is reported when the upstream gives no message of its own.
const DefaultErrorMessage = "Erro ao buscar previsão do tempo."

// UpstreamError carries the upstream status and message.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather upstream %d: %s", e.Status, e.Message)
}

// Client fetches forecasts and caches successful payloads per city.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *cache.Cache
	ttl     time.Duration
	log     *log.Entry
}

// NewClient builds a client. A ttl of zero disables caching.
func NewClient(baseURL, apiKey string, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
		log:     log.WithField("component", "weather"),
	}
}

// Forecast returns the raw upstream forecast for city.
func (c *Client) Forecast(ctx context.Context, city string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	key := strings.ToLower(strings.TrimSpace(city))
	if c.ttl > 0 {
		if cached, ok := c.cache.Get(key); ok {
			c.log.WithField("city", city).Debug("Forecast served from cache")
			return cached.(json.RawMessage), nil
		}
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "pt_br")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	c.log.WithField("city", city).Info("Fetching forecast")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("city", city).Error("Forecast request failed")
		return nil, &UpstreamError{Status: http.StatusInternalServerError, Message: DefaultErrorMessage}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusInternalServerError, Message: DefaultErrorMessage}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := DefaultErrorMessage
		var upstream struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &upstream) == nil && upstream.Message != "" {
			msg = upstream.Message
		}
		c.log.WithFields(log.Fields{"city": city, "status": resp.StatusCode, "message": msg}).Warn("Forecast upstream error")
		return nil, &UpstreamError{Status: resp.StatusCode, Message: msg}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: DefaultErrorMessage}
	}

	raw := json.RawMessage(body)
	if c.ttl > 0 {
		c.cache.Set(key, raw, cache.DefaultExpiration)
	}
	return raw, nil
}
