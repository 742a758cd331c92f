package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/huerizon/skysyncd/internal/config"
	"github.com/huerizon/skysyncd/internal/ledger"
	"github.com/huerizon/skysyncd/internal/mqtt"
)

// HealthService provides HTTP health check endpoints, plus a manual
// apply endpoint and read access to the decision ledger.
type HealthService struct {
	cfg    *config.Config
	sync   *SyncService
	ledger *ledger.Ledger
	server *http.Server
}

// NewHealthService creates a new HealthService.
func NewHealthService(cfg *config.Config, sync *SyncService, led *ledger.Ledger) *HealthService {
	return &HealthService{
		cfg:    cfg,
		sync:   sync,
		ledger: led,
	}
}

// Start begins the health check server if enabled.
func (s *HealthService) Start(ctx context.Context) {
	if !s.cfg.Healthcheck.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *HealthService) run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Healthcheck.Host, s.cfg.Healthcheck.Port)

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Ready check endpoint
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Manual apply: inject one reading as if it arrived on the feed.
	mux.HandleFunc("/apply", s.handleApply)

	// Recent gate decisions, newest first.
	mux.HandleFunc("/decisions", s.handleDecisions)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	log.Info().Str("addr", addr).Msg("Starting health check server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health check server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Health check server error")
	}
}

func (s *HealthService) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reading, err := mqtt.ParseReading(body, mqtt.ParseOptions{StripSymbols: s.cfg.Engine.StripSymbols})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	decisions := s.sync.HandleReading(r.Context(), reading)

	type decisionView struct {
		Target  string `json:"target"`
		Outcome string `json:"outcome"`
		Reason  string `json:"reason,omitempty"`
		Error   string `json:"error,omitempty"`
	}
	views := make([]decisionView, 0, len(decisions))
	for _, d := range decisions {
		v := decisionView{Target: d.Target, Outcome: string(d.Outcome), Reason: string(d.Reason)}
		if d.Err != nil {
			v.Error = d.Err.Error()
		}
		views = append(views, v)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (s *HealthService) handleDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var entries []*ledger.Entry
	var err error
	if target := r.URL.Query().Get("target"); target != "" {
		entries, err = s.ledger.RecentForTarget(target, limit)
	} else {
		entries, err = s.ledger.Recent(limit)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
