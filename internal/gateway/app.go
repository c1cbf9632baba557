// Package gateway is the public HTTP surface of marketd.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"EcoFinds/internal/auth"
	"EcoFinds/internal/catalog"
	"EcoFinds/internal/session"
	"EcoFinds/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Catalog  catalog.Store
	Auth     *auth.Server
	Sessions *session.Server

	// PredictURL is proxied under /ml when set.
	PredictURL string
}

const readyTimeout = 2 * time.Second

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	r := chi.NewRouter()
	kit.Base(r, httpDeps.Log)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Catalog, httpDeps.Log))

	if deps.PredictURL != "" {
		ml, err := NewReverseProxy(deps.PredictURL, httpDeps.Log)
		if err != nil {
			return nil, err
		}
		r.Handle("/ml/*", http.StripPrefix("/ml", ml))
	}

	r.Mount("/auth", deps.Auth.Routes())
	r.Mount("/session", deps.Sessions.Routes())

	cat := &catalog.Server{Store: deps.Catalog, Log: httpDeps.Log}
	r.Mount("/", cat.Routes())

	return r, nil
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		if deps.Log != nil {
			deps.Log.Info("metrics endpoint disabled")
		}
		return
	}

	r.Handle("/metrics", kit.MetricsHandler(deps.Registry, deps.MetricsToken))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(store catalog.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed: catalog", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
