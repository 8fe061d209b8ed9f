package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/smart-garage/internal/config"
	"github.com/ukydev/smart-garage/internal/db"
	"github.com/ukydev/smart-garage/internal/handlers"
	"github.com/ukydev/smart-garage/internal/middleware"
	"github.com/ukydev/smart-garage/internal/notify"
	"github.com/ukydev/smart-garage/internal/tips"
	"github.com/ukydev/smart-garage/internal/weather"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

type routes struct {
	vehicles  *handlers.VehicleHandler
	tips      *handlers.TipsHandler
	weather   *handlers.WeatherHandler
	status    *handlers.StatusHandler
	staticDir string
}

func newRouter(r routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/veiculos", r.vehicles.Create)
	mux.HandleFunc("GET /api/veiculos", r.vehicles.List)
	mux.HandleFunc("PUT /api/veiculos/{id}", r.vehicles.Update)
	mux.HandleFunc("DELETE /api/veiculos/{id}", r.vehicles.Delete)

	mux.HandleFunc("GET /api/previsao/{cidade}", r.weather.Forecast)
	mux.HandleFunc("GET /api/dicas-manutencao", r.tips.General)
	mux.HandleFunc("GET /api/dicas-manutencao/{tipo}", r.tips.ByKind)
	mux.HandleFunc("GET /api/db-status", r.status.DBStatus)

	if r.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(r.staticDir)))
	} else {
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("Servidor backend da Garagem Inteligente"))
		})
	}
	return mux
}

// connectDB configures the client and verifies it in the background so the
// server starts even while the database is unreachable.
func connectDB(ctx context.Context, cfg *config.Config, tracker *db.StateTracker) (*mongo.Client, *db.MongoCollection) {
	if cfg.MongoURI == "" {
		log.Error("MONGO_URI_CRUD not set, vehicle routes will fail until it is configured")
		return nil, &db.MongoCollection{}
	}
	client, err := db.NewClient(ctx, cfg.MongoURI, tracker)
	if err != nil {
		log.WithError(err).Error("Failed to configure MongoDB client")
		return nil, &db.MongoCollection{}
	}
	coll := db.NewMongoCollection(client.Database(cfg.MongoDB).Collection(db.VehiclesCollection))

	go func() {
		if err := db.Ping(ctx, client, tracker); err != nil {
			log.WithError(err).Error("Failed to connect to MongoDB")
			return
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		if err := coll.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Error("Failed to create indexes")
		}
	}()
	return client, coll
}

func buildNotifier(cfg *config.Config) (notify.Notifier, func()) {
	notifiers := notify.Multi{notify.NewLogNotifier()}
	if cfg.MQTTBroker == "" {
		return notifiers, func() {}
	}
	mqttNotifier, client, err := notify.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, vehicle events will only be logged")
		return notifiers, func() {}
	}
	return append(notifiers, mqttNotifier), func() { client.Disconnect(250) }
}

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := db.NewStateTracker()
	client, coll := connectDB(ctx, cfg, tracker)

	notifier, closeNotifier := buildNotifier(cfg)
	defer closeNotifier()

	catalogue, err := tips.Default()
	if err != nil {
		log.WithError(err).Fatal("Failed to load maintenance tips")
	}
	if cfg.WeatherAPIKey == "" {
		log.Warn("API_KEY not set, forecast requests will fail")
	}

	mux := newRouter(routes{
		vehicles:  handlers.NewVehicleHandler(coll, notifier),
		tips:      handlers.NewTipsHandler(catalogue),
		weather:   handlers.NewWeatherHandler(weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherCacheTTL)),
		status:    handlers.NewStatusHandler(tracker),
		staticDir: cfg.StaticDir,
	})
	limiter := middleware.NewRateLimitMiddleware(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	handler := middleware.Chain(mux,
		middleware.Logging(log.WithField("component", "http")),
		middleware.CORS,
		limiter.RateLimit,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Garage backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := db.DisconnectMongo(shutdownCtx, client, tracker); err != nil {
		log.WithError(err).Error("MongoDB disconnect failed")
	}
	log.Info("Server gracefully stopped")
}
