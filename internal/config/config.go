package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the environment-driven configuration of the backend and the simulator.
type Config struct {
	Port string

	WeatherAPIKey   string
	WeatherBaseURL  string
	WeatherCacheTTL time.Duration

	MongoURI string
	MongoDB  string

	RateLimitPerSec float64
	RateLimitBurst  int

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	StaticDir string
	LogLevel  string
	LogFormat string

	GarageDataDir string
	BackendURL    string
	SimTick       time.Duration
	SimCity       string
}

// Load reads an optional .env file, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment, applying defaults.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "3001"),
		WeatherAPIKey:   os.Getenv("API_KEY"),
		WeatherBaseURL:  getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherCacheTTL: getDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		MongoURI:        os.Getenv("MONGO_URI_CRUD"),
		MongoDB:         getEnv("MONGO_DB", "garagem"),
		RateLimitPerSec: getFloat("RATE_LIMIT_PER_SEC", 10),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 20),
		MQTTBroker:      os.Getenv("MQTT_BROKER"),
		MQTTTopic:       getEnv("MQTT_TOPIC", "garage/events"),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "smart-garage"),
		StaticDir:       os.Getenv("STATIC_DIR"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		GarageDataDir:   getEnv("GARAGE_DATA_DIR", "./data"),
		BackendURL:      strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:3001"), "/"),
		SimTick:         time.Duration(getInt("SIM_TICK_SECONDS", 2)) * time.Second,
		SimCity:         getEnv("SIM_CITY", "Curitiba"),
	}
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.WithField(key, v).Warn("Invalid integer, using default")
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
		log.WithField(key, v).Warn("Invalid number, using default")
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
		log.WithField(key, v).Warn("Invalid duration, using default")
	}
	return def
}
