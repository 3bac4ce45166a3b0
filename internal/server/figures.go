package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/record"
	"github.com/verte-zerg/seatplay/internal/report"
)

const (
	plotTypeStudent  = "student"
	plotTypeAnalysis = "analysis"
	figureWidth      = 72
	figureHeight     = 10
)

var (
	studentFigure  = regexp.MustCompile(`^students_(\d+)\.(png|txt)$`)
	analysisFigure = regexp.MustCompile(`^analysis\((\d+)-(\d+)-(\d+)\)\.(png|txt)$`)
)

func figureFolder(seats int) string {
	return "seats_" + strconv.Itoa(seats)
}

// StudentFigurePath is the figure path for one student count.
func StudentFigurePath(seats, students int) string {
	return path.Join(figureFolder(seats), fmt.Sprintf("students_%d.txt", students))
}

// AnalysisFigurePath is the figure path for a student range analysis.
func AnalysisFigurePath(seats, minStudents, maxStudents int) string {
	return path.Join(figureFolder(seats), fmt.Sprintf("analysis(%d-%d-%d).txt", seats, minStudents, maxStudents))
}

func (s *Server) generatePlots(w http.ResponseWriter, r *http.Request) {
	var req model.PlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, model.PlotResponse{Status: "error", Message: err.Error()})
		return
	}
	var (
		rel string
		err error
	)
	switch req.PlotType {
	case plotTypeStudent:
		rel, err = s.writeStudentFigure(r.Context(), req.SeatCount, req.StudentCount)
	case plotTypeAnalysis:
		rel, err = s.writeAnalysisFigure(r.Context(), req.SeatCount, req.MinStudents, req.MaxStudents)
	default:
		writeJSON(w, http.StatusOK, model.PlotResponse{Status: "error", Message: `Invalid plot type. Use "student" or "analysis".`})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, model.PlotResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.PlotResponse{
		Status:       "success",
		Message:      fmt.Sprintf("%s plot for %d seats generated", req.PlotType, req.SeatCount),
		ExpectedPath: rel,
	})
}

func (s *Server) generateBatchPlots(w http.ResponseWriter, r *http.Request) {
	req := model.BatchPlotRequest{GenerateAnalysis: true, GenerateStudentPlots: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, model.PlotResponse{Status: "error", Message: err.Error()})
		return
	}
	if req.MinStudents > req.MaxStudents {
		writeJSON(w, http.StatusOK, model.PlotResponse{Status: "error", Message: "min_students exceeds max_students"})
		return
	}
	var results []model.PlotResult
	if req.GenerateAnalysis {
		rel, err := s.writeAnalysisFigure(r.Context(), req.SeatCount, req.MinStudents, req.MaxStudents)
		results = append(results, plotResult(plotTypeAnalysis, 0, rel, err))
	}
	if req.GenerateStudentPlots {
		for n := req.MinStudents; n <= req.MaxStudents; n++ {
			rel, err := s.writeStudentFigure(r.Context(), req.SeatCount, n)
			results = append(results, plotResult(plotTypeStudent, n, rel, err))
		}
	}
	writeJSON(w, http.StatusOK, model.PlotResponse{
		Status:  "success",
		Message: fmt.Sprintf("Batch generation completed for seat count %d, students %d-%d", req.SeatCount, req.MinStudents, req.MaxStudents),
		Results: results,
	})
}

func plotResult(kind string, students int, rel string, err error) model.PlotResult {
	if err != nil {
		return model.PlotResult{Type: kind, StudentCount: students, Status: "error", Message: err.Error()}
	}
	return model.PlotResult{Type: kind, StudentCount: students, Path: rel, Status: "success", Message: "generated"}
}

func (s *Server) checkExistingPlots(w http.ResponseWriter, r *http.Request) {
	req := model.CheckPlotsRequest{CheckAnalysis: true, CheckStudentPlots: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, model.CheckPlotsResponse{Status: "error", Message: err.Error()})
		return
	}
	plots, err := record.ListPlots(s.FiguresDir())
	if err != nil {
		writeJSON(w, http.StatusOK, model.CheckPlotsResponse{Status: "error", Message: err.Error()})
		return
	}
	found := FilterExisting(plots, req)
	summary := model.PlotSummary{
		AnalysisCount: len(found.AnalysisPlots),
		StudentCount:  len(found.StudentPlots),
	}
	summary.TotalCount = summary.AnalysisCount + summary.StudentCount
	writeJSON(w, http.StatusOK, model.CheckPlotsResponse{
		Status:  "success",
		Message: fmt.Sprintf("Found %d plots for seat count %d", summary.TotalCount, req.SeatCount),
		Results: found,
		Summary: summary,
	})
}

// FilterExisting picks the figures of one seat count, optionally bounded by
// a student range. Analysis figures must lie within the range.
func FilterExisting(plots []model.PlotEntry, req model.CheckPlotsRequest) model.ExistingPlots {
	out := model.ExistingPlots{AnalysisPlots: []model.PlotEntry{}, StudentPlots: []model.PlotEntry{}}
	prefix := figureFolder(req.SeatCount) + "/"
	bounded := req.MinStudents != nil && req.MaxStudents != nil
	for _, p := range plots {
		if !strings.HasPrefix(p.Path, prefix) {
			continue
		}
		if m := analysisFigure.FindStringSubmatch(p.Name); m != nil && req.CheckAnalysis {
			lo, _ := strconv.Atoi(m[2])
			hi, _ := strconv.Atoi(m[3])
			if m[1] != strconv.Itoa(req.SeatCount) {
				continue
			}
			if bounded && (lo < *req.MinStudents || hi > *req.MaxStudents) {
				continue
			}
			out.AnalysisPlots = append(out.AnalysisPlots, p)
			continue
		}
		if m := studentFigure.FindStringSubmatch(p.Name); m != nil && req.CheckStudentPlots {
			n, _ := strconv.Atoi(m[1])
			if bounded && (n < *req.MinStudents || n > *req.MaxStudents) {
				continue
			}
			out.StudentPlots = append(out.StudentPlots, p)
		}
	}
	return out
}

// loadFolder loads every record of a seat folder whose student count passes keep.
func (s *Server) loadFolder(ctx context.Context, seats int, keep func(students int) bool) ([]model.Record, error) {
	folder := record.SeatFolderName(seats)
	files, err := record.ListStudentFiles(s.SimulationsDir(), folder)
	if err != nil {
		return nil, err
	}
	src := record.DirSource{Root: s.SimulationsDir()}
	var recs []model.Record
	for _, f := range files {
		if !keep(f.StudentCount) {
			continue
		}
		rec, err := record.Load(ctx, src, f.Path)
		if err != nil {
			s.log.WithError(err).WithField("record", f.Path).Warn("skip record")
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Server) writeStudentFigure(ctx context.Context, seats, students int) (string, error) {
	recs, err := s.loadFolder(ctx, seats, func(n int) bool { return n == students })
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("no records for %d students with %d seats", students, seats)
	}
	var buf bytes.Buffer
	for _, rec := range recs {
		if err := report.RenderRecordPlot(&buf, rec, report.PlotOptions{Width: figureWidth, Height: figureHeight}); err != nil {
			return "", err
		}
	}
	rel := StudentFigurePath(seats, students)
	return rel, s.writeFigure(rel, buf.Bytes())
}

func (s *Server) writeAnalysisFigure(ctx context.Context, seats, minStudents, maxStudents int) (string, error) {
	if minStudents > maxStudents {
		return "", fmt.Errorf("min students %d exceeds max students %d", minStudents, maxStudents)
	}
	recs, err := s.loadFolder(ctx, seats, func(n int) bool { return n >= minStudents && n <= maxStudents })
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("no records for %d seats, students %d-%d", seats, minStudents, maxStudents)
	}
	summaries := make([]report.Summary, len(recs))
	for i, rec := range recs {
		summaries[i] = report.Summarize(rec)
	}
	var buf bytes.Buffer
	if err := report.RenderAnalysis(&buf, seats, report.Analyze(summaries), report.PlotOptions{Width: figureWidth, Height: figureHeight}); err != nil {
		return "", err
	}
	rel := AnalysisFigurePath(seats, minStudents, maxStudents)
	return rel, s.writeFigure(rel, buf.Bytes())
}

func (s *Server) writeFigure(rel string, data []byte) error {
	full := filepath.Join(s.FiguresDir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create figure dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write figure: %w", err)
	}
	s.log.WithField("figure", rel).Info("figure written")
	return nil
}
