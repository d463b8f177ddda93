package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/taskflow/config"
	"github.com/BaSui01/taskflow/internal/server"
	"github.com/BaSui01/taskflow/orchestrator"
	"github.com/BaSui01/taskflow/quick"
)

// daemonServer ties the orchestrator to the admin HTTP listener.
type daemonServer struct {
	cfg     *config.Config
	logger  *zap.Logger
	orch    *orchestrator.Orchestrator
	manager *server.Manager
}

// newServer builds the orchestrator with the built-in demo agents and the
// admin endpoints.
func newServer(cfg *config.Config, logger *zap.Logger, addr string) (*daemonServer, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	orch, err := quick.New(
		quick.WithConfig(cfg),
		quick.WithLogger(logger),
		quick.WithMetrics(cfg.Metrics.Namespace, reg),
		quick.WithHandlerFunc("echo", func(ctx context.Context, payload any) (any, error) {
			return payload, nil
		}),
		quick.WithHandlerFunc("upper", func(ctx context.Context, payload any) (any, error) {
			s, _ := payload.(string)
			return strings.ToUpper(s), nil
		}),
		quick.WithHandlerFunc("sleep", func(ctx context.Context, payload any) (any, error) {
			d, err := time.ParseDuration(payload.(string))
			if err != nil {
				return nil, err
			}
			select {
			case <-time.After(d):
				return "slept " + d.String(), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	s := &daemonServer{cfg: cfg, logger: logger, orch: orch}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleHealthz)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	serverCfg := server.DefaultConfig()
	serverCfg.Addr = addr
	s.manager = server.NewManager(mux, serverCfg, logger)
	return s, nil
}

func (s *daemonServer) Start() error {
	return s.manager.Start()
}

// WaitForShutdown blocks until a signal arrives, then drains the
// orchestrator and stops the listener.
func (s *daemonServer) WaitForShutdown() {
	s.manager.WaitForShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.orch.Shutdown(ctx, true); err != nil {
		s.logger.Error("orchestrator shutdown error", zap.Error(err))
	}
}

func (s *daemonServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *daemonServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})
}

func (s *daemonServer) handleStats(w http.ResponseWriter, r *http.Request) {
	agents := make(map[string]int)
	for state, n := range s.orch.Registry().CountByState() {
		agents[string(state)] = n
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orch.QueueDepth(),
		"inflight":    s.orch.InflightCount(),
		"agents":      agents,
	})
}
