package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/config"
	"github.com/dokzlo13/lifxswitch/internal/device"
	"github.com/dokzlo13/lifxswitch/internal/ledger"
)

// HealthService serves health, readiness, metrics, group status and gesture
// history over HTTP.
type HealthService struct {
	cfg      *config.Config
	services *Services
	server   *http.Server
}

// NewHealthService creates a new HealthService.
func NewHealthService(cfg *config.Config, services *Services) *HealthService {
	return &HealthService{
		cfg:      cfg,
		services: services,
	}
}

// Start begins the status server if enabled.
func (s *HealthService) Start(ctx context.Context) {
	if !s.cfg.Healthcheck.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *HealthService) run(ctx context.Context) {
	addr := s.cfg.Healthcheck.Addr()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Starting status server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Status server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Status server error")
	}
}

// groupStatus is one entry of /groups.
type groupStatus struct {
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

// Router builds the status routes.
func (s *HealthService) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Ready once discovery has completed a pass
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		var last time.Time
		if s.services.LIFX != nil && s.services.LIFX.Discovery != nil {
			last = s.services.LIFX.Discovery.LastSuccess()
		}
		if last.IsZero() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "discovering"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "last_discovery": last.UTC()})
	})

	r.Handle("/metrics", s.services.Metrics.Handler())

	r.Get("/groups", func(w http.ResponseWriter, r *http.Request) {
		names := s.services.Groups.Names()
		out := make([]groupStatus, 0, len(names))
		for _, name := range names {
			g, ok := s.services.Groups.Lookup(name)
			if !ok {
				continue
			}
			st := groupStatus{Name: name, Devices: []string{}}
			for _, d := range g.Devices() {
				st.Devices = append(st.Devices, device.MAC(d.ID()))
			}
			out = append(out, st)
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		records, err := s.services.Inventory.List(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to list devices")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "inventory unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, records)
	})

	// /history?kind=gesture&kind=action_failed&gesture=<id>&limit=50
	r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := ledger.Filter{GestureID: q.Get("gesture")}
		for _, k := range q["kind"] {
			f.Kinds = append(f.Kinds, ledger.EventType(k))
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
				return
			}
			f.Limit = n
		}

		entries, err := s.services.Ledger.History(r.Context(), f)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read gesture history")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
