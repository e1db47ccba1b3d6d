package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lekhanraj-ai/mediqueue/internal/doctor"
	"github.com/lekhanraj-ai/mediqueue/internal/queue"
)

type RouterConfig struct {
	Service   *queue.Service
	Directory doctor.Directory
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Log       *zap.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))

	// Health endpoints need the backing connections; tests wire the
	// router without them.
	if cfg.PgPool != nil {
		health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
		r.Get("/health/live", health.Liveness)
		r.Get("/health/ready", health.Readiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Get("/appointments/{id}/position", getPositionHandler(cfg.Service))
		r.Post("/appointments/{id}/advance", advanceAppointmentHandler(cfg.Service))

		r.Get("/doctors", listDoctorsHandler(cfg.Directory))
		r.Get("/doctors/{doctorID}/queue", getQueueHandler(cfg.Service))

		r.Get("/queues/summary", queuesSummaryHandler(cfg.Service))
	})

	return r
}
