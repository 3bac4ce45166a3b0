package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/seatplay/internal/record"
)

type statusReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) seatCounts(w http.ResponseWriter, r *http.Request) {
	folders, err := record.ListSeatFolders(s.SimulationsDir())
	if err != nil {
		s.log.WithError(err).Error("list seat folders")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (s *Server) studentFiles(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	files, err := record.ListStudentFiles(s.SimulationsDir(), folder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) simulationRecords(w http.ResponseWriter, r *http.Request) {
	records, err := record.ListRecords(s.SimulationsDir())
	if err != nil {
		s.log.WithError(err).Error("list records")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) plots(w http.ResponseWriter, r *http.Request) {
	plots, err := record.ListPlots(s.FiguresDir())
	if err != nil {
		s.log.WithError(err).Error("list plots")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, plots)
}

func (s *Server) runsUnavailable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, statusReply{
		Status:  "error",
		Message: "this server only serves records; submit runs to the simulation backend",
	})
}

// serveRecord returns a record as JSON, decompressing .gz files.
func (s *Server) serveRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	data, err := record.DirSource{Root: s.SimulationsDir()}.Fetch(r.Context(), name)
	switch {
	case errors.Is(err, os.ErrNotExist):
		writeError(w, http.StatusNotFound, errors.New("record not found"))
		return
	case err != nil:
		s.log.WithError(err).WithField("record", name).Warn("serve record")
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) serveFigure(w http.ResponseWriter, r *http.Request) {
	name, err := record.CleanName(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	full := filepath.Join(s.FiguresDir(), filepath.FromSlash(name))
	if strings.HasSuffix(name, ".txt") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	http.ServeFile(w, r, full)
}
