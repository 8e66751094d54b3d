package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RianMcHale/Container-Security-Scanner/internal/scanner"
	"github.com/RianMcHale/Container-Security-Scanner/internal/store"
)

const shutdownGrace = 10 * time.Second

// Server exposes scan results over HTTP. One handler goroutine serves
// one request to completion; the scan path blocks its handler for the
// full duration of the trivy subprocess.
type Server struct {
	store   *store.Store
	invoker scanner.Invoker
	log     *zap.SugaredLogger
	httpSrv *http.Server
}

func New(addr string, st *store.Store, inv scanner.Invoker, log *zap.SugaredLogger) *Server {
	s := &Server{
		store:   st,
		invoker: inv,
		log:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /scan", s.handleCreateScan)
	mux.HandleFunc("GET /scans", s.handleListScans)
	mux.HandleFunc("GET /scans/{id}", s.handleGetScan)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until the context is cancelled, then drains in-flight
// requests for up to shutdownGrace.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.log.Infow("listening", "addr", s.httpSrv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}
