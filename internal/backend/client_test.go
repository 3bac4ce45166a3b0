package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/verte-zerg/seatplay/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, time.Second, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestSubmitRunPostsCamelCaseBody(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/start_simulation" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "success", "message": "Simulation completed"}`))
	})

	resp, err := c.SubmitRun(context.Background(), model.RunRequest{
		Rows: 3, Cols: 3, TotalStudents: 9,
		HumanitiesRatio: 40, ScienceRatio: 30, EngineeringRatio: 30,
		CleaningTime: 15,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.OK() || resp.Message != "Simulation completed" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got["totalStudents"] != float64(9) || got["humanitiesRatio"] != float64(40) || got["useMultiprocessing"] != false {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestSubmitRunRejectsInvalidInputWithoutCalling(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := c.SubmitRun(context.Background(), model.RunRequest{Rows: 0, Cols: 3, TotalStudents: 9})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if called {
		t.Fatalf("expected no request for invalid input")
	}
}

func TestSubmitRangeReturnsResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/start_range_simulation" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status": "success", "message": "3 runs", "results": [{"students": 5}, {"students": 7}, {"students": 9}]}`))
	})
	resp, err := c.SubmitRange(context.Background(), model.RangeRunRequest{
		Rows: 3, Cols: 3, MinStudents: 5, MaxStudents: 9, StudentStep: 2, RepeatCount: 1,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(resp.Results) != 3 || resp.Results[2].Students != 9 {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestErrorStatusCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": "error", "message": "simulation crashed"}`))
	})
	_, err := c.SubmitRun(context.Background(), model.RunRequest{Rows: 1, Cols: 1, TotalStudents: 1})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusInternalServerError || se.Message != "simulation crashed" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestListingEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/seat_counts":
			_, _ = w.Write([]byte(`[{"value": "9_seats_simulations", "label": "9 seats", "seat_count": 9}]`))
		case "/api/student_files/9_seats_simulations":
			_, _ = w.Write([]byte(`[{"path": "9_seats_simulations/5-1.json", "name": "5-1.json", "student_count": 5}]`))
		case "/api/simulation_records":
			_, _ = w.Write([]byte(`[{"path": "9_seats_simulations/5-1.json", "name": "5-1.json", "seat_count": "9"}]`))
		case "/api/plots":
			_, _ = w.Write([]byte(`[{"path": "9_seats/5.png", "name": "5.png"}]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	folders, err := c.SeatCounts(ctx)
	if err != nil || len(folders) != 1 || folders[0].SeatCount != 9 {
		t.Fatalf("seat counts: %v %+v", err, folders)
	}
	files, err := c.StudentFiles(ctx, folders[0].Value)
	if err != nil || len(files) != 1 || files[0].StudentCount != 5 {
		t.Fatalf("student files: %v %+v", err, files)
	}
	records, err := c.Records(ctx)
	if err != nil || len(records) != 1 || records[0].SeatCount != "9" {
		t.Fatalf("records: %v %+v", err, records)
	}
	plots, err := c.Plots(ctx)
	if err != nil || len(plots) != 1 || plots[0].Name != "5.png" {
		t.Fatalf("plots: %v %+v", err, plots)
	}
}

func TestPlotRequests(t *testing.T) {
	var bodies []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		if r.URL.Path == "/api/check_existing_plots" {
			_, _ = w.Write([]byte(`{"status": "success", "message": "Found 1 plots", "results": {"analysis_plots": [], "student_plots": [{"path": "seats_9/students_5.png", "name": "students_5.png"}]}, "summary": {"analysis_count": 0, "student_count": 1, "total_count": 1}}`))
			return
		}
		_, _ = w.Write([]byte(`{"status": "success", "message": "ok", "results": [{"type": "student", "student_count": 5, "status": "success", "message": "generated"}]}`))
	})
	ctx := context.Background()
	if _, err := c.GeneratePlots(ctx, model.PlotRequest{SeatCount: 9, PlotType: "student", StudentCount: 5}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := c.GenerateBatchPlots(ctx, model.BatchPlotRequest{SeatCount: 9, MinStudents: 1, MaxStudents: 9, GenerateStudentPlots: true}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	resp, err := c.CheckExistingPlots(ctx, model.CheckPlotsRequest{SeatCount: 9, CheckStudentPlots: true})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.Summary.TotalCount != 1 || len(resp.Results.StudentPlots) != 1 || resp.Results.StudentPlots[0].Name != "students_5.png" {
		t.Fatalf("unexpected check results: %+v", resp)
	}
	if bodies[0]["plot_type"] != "student" || bodies[1]["generate_student_plots"] != true {
		t.Fatalf("unexpected bodies: %v", bodies)
	}
	if _, ok := bodies[2]["min_students"]; ok {
		t.Fatalf("expected unset bounds to be omitted: %v", bodies[2])
	}
	if _, err := c.GenerateBatchPlots(ctx, model.BatchPlotRequest{SeatCount: 9, MinStudents: 5, MaxStudents: 1}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid input for inverted bounds, got %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:5000", "ftp://host"} {
		if _, err := New(u, 0, nil); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}
}
