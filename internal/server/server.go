// Package server exposes the assistant over HTTP: a small chat API plus
// health and metrics endpoints.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/orbitcrm/assist/config"
	"github.com/orbitcrm/assist/internal/assistant/classify"
	"github.com/orbitcrm/assist/internal/assistant/kb"
	"github.com/orbitcrm/assist/internal/assistant/llm"
	"github.com/orbitcrm/assist/internal/assistant/session"
	"github.com/orbitcrm/assist/internal/assistant/telemetry"
	"github.com/orbitcrm/assist/internal/store"
)

// Run wires the assistant stack from config and serves until the listener
// fails.
func Run(cfg *config.Config) error {
	httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.New(prometheus.DefaultRegisterer)
	}

	classifier, err := classify.NewDefault()
	if err != nil {
		return fmt.Errorf("load classifier wordlists: %w", err)
	}
	repo := kb.NewRepository(cfg.Knowledge.AssetDir, log.New(log.Writer(), "[KB] ", log.LstdFlags))
	retriever := kb.NewRetriever(repo, classifier, log.New(log.Writer(), "[RETRIEVE] ", log.LstdFlags), metrics)
	orch := llm.NewOrchestrator(cfg.LLM, log.New(log.Writer(), "[LLM] ", log.LstdFlags), metrics)

	transcripts, err := openTranscriptStore(cfg.Storage)
	if err != nil {
		return err
	}

	registry := NewRegistry(func(key string, role kb.Role, authenticated bool) Engine {
		return session.NewController(session.Config{
			Key:           key,
			Role:          role,
			Authenticated: authenticated,
			Classifier:    classifier,
			Retriever:     retriever,
			Generator:     orch,
			Store:         transcripts,
			Logger:        log.New(log.Writer(), "[SESSION] ", log.LstdFlags),
		})
	})

	e := newEcho(httpLogger, cfg.Telemetry.Enabled)
	ch := &ChatHandler{Registry: registry, Secret: []byte(cfg.Server.JWTSecret)}
	ch.Register(e.Group("/api/chat"))

	httpLogger.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}

// newEcho builds the bare app: panic recovery, CORS, unified JSON errors,
// health and metrics.
func newEcho(logger *log.Logger, metricsEnabled bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if metricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	return e
}

// openTranscriptStore picks the transcript backend by driver.
func openTranscriptStore(cfg config.StorageConfig) (session.Store, error) {
	switch cfg.Driver {
	case "postgres":
		st, err := store.Open(cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		return st, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return session.NewRedisStore(client, 0), nil
	default:
		return session.NewMemoryStore(), nil
	}
}
