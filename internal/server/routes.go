// Package server serves simulation records and listings over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server exposes a simulation data directory laid out as
// <data>/simulations/<N>_seats_simulations/*.json and <data>/figures/.
type Server struct {
	dataDir string
	log     logrus.FieldLogger
}

// New returns a server over dataDir.
func New(dataDir string, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{dataDir: dataDir, log: log.WithField("component", "server")}
}

// SimulationsDir returns the record root.
func (s *Server) SimulationsDir() string {
	return filepath.Join(s.dataDir, "simulations")
}

// FiguresDir returns the generated figure root.
func (s *Server) FiguresDir() string {
	return filepath.Join(s.dataDir, "figures")
}

// SetupRoutes builds the router.
func SetupRoutes(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(enableCORS)

	r.Get("/healthz", Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/seat_counts", s.seatCounts)
		r.Get("/student_files/{folder}", s.studentFiles)
		r.Get("/simulation_records", s.simulationRecords)
		r.Get("/plots", s.plots)
		r.Post("/generate_plots", s.generatePlots)
		r.Post("/generate_batch_plots", s.generateBatchPlots)
		r.Post("/check_existing_plots", s.checkExistingPlots)
		r.Post("/start_simulation", s.runsUnavailable)
		r.Post("/start_range_simulation", s.runsUnavailable)
	})

	r.Get("/simulation_data/simulations/*", s.serveRecord)
	r.Get("/simulation_data/figures/*", s.serveFigure)
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           SetupRoutes(s),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"addr": addr, "data": s.dataDir}).Info("record server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("record server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"elapsed":    time.Since(started),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
