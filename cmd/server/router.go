package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apphandler "memberpanel/internal/application/handler"
	jwttoken "memberpanel/internal/jwt_token"
	"memberpanel/internal/platform/config"
	"memberpanel/internal/platform/metrics"
	"memberpanel/pkg/platform/httputil"
	authmw "memberpanel/pkg/platform/middleware/auth"
	"memberpanel/pkg/platform/middleware/request"
)

const (
	requestTimeout = 20 * time.Second
	// probeTimeout bounds the dependency checks behind /healthz.
	probeTimeout = 2 * time.Second
)

func newRouter(cfg config.Server, app *application, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(chimiddleware.Recoverer)
	r.Use(request.Logger(log))
	r.Use(metrics.New().Middleware)

	r.Get("/healthz", app.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	tokens := jwttoken.NewMiddlewareValidator(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer))
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		r.Use(authmw.RequireAuth(tokens, log))
		apphandler.New(app.service, log).Register(r)
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth reports each configured dependency; any failure turns the response 503.
func (a *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	probes := map[string]func(context.Context) error{}
	if a.db != nil {
		probes["postgres"] = a.db.PingContext
	}
	if a.redis != nil {
		probes["redis"] = a.redis.Health
	}
	if a.producer != nil {
		probes["kafka"] = a.producer.Ping
	}

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for name, probe := range probes {
		if err := probe(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
