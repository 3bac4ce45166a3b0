package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/seatplay/internal/model"
)

// RenderSummary prints the summary block of one record.
func RenderSummary(w io.Writer, s Summary) error {
	lines := []string{
		"Record: " + s.Name,
		fmt.Sprintf("Grid Size: %d x %d", s.Scale.Rows, s.Scale.Cols),
		fmt.Sprintf("Total Seats: %d", s.Scale.Seats()),
		fmt.Sprintf("Total Students: %d", s.Scale.Students),
		fmt.Sprintf("Steps: %d", s.Steps),
		fmt.Sprintf("Peak Occupancy: %.1f%%", s.PeakOccupancy),
		fmt.Sprintf("Mean Occupancy: %.1f%%", s.MeanOccupancy),
		fmt.Sprintf("Final Occupancy: %.1f%%", s.LastOccupancy),
		fmt.Sprintf("Peak Reserved: %d", s.PeakReserved),
		fmt.Sprintf("High Reserve Time: %.1f%%", s.HighReserve*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderRecordPlot prints the summary and occupancy curves of rec.
func RenderRecordPlot(w io.Writer, rec model.Record, opts PlotOptions) error {
	if err := RenderSummary(w, Summarize(rec)); err != nil {
		return err
	}
	series := SeriesOf(rec)
	if opts.Title == "" {
		opts.Title = "Occupancy over time"
	}
	if err := Plot(w, []Series{
		{Name: "Occupancy", Values: series.Occupancy},
		{Name: "Reserved", Values: series.Reserved},
	}, opts); err != nil {
		return err
	}
	if len(series.Times) > 0 {
		if _, err := fmt.Fprintf(w, "Time: %s -> %s\n", series.Times[0], series.Times[len(series.Times)-1]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// RenderAnalysis prints per-student-count averages and their curves.
func RenderAnalysis(w io.Writer, seats int, groups []StudentSummary, opts PlotOptions) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintf(w, "No records found for %d seats.\n", seats)
		return err
	}
	headers := []string{"Students", "Runs", "Mean Occ.", "Peak Occ.", "High Reserve"}
	rows := make([][]string, 0, len(groups))
	mean := make([]float64, len(groups))
	reserve := make([]float64, len(groups))
	for i, g := range groups {
		rows = append(rows, []string{
			strconv.Itoa(g.Students),
			strconv.Itoa(g.Runs),
			fmt.Sprintf("%.1f%%", g.MeanOccupancy),
			fmt.Sprintf("%.1f%%", g.PeakOccupancy),
			fmt.Sprintf("%.1f%%", g.HighReserve*100),
		})
		mean[i] = g.MeanOccupancy
		reserve[i] = g.HighReserve * 100
	}
	title := fmt.Sprintf("Analysis: %d seats, students %d-%d", seats, groups[0].Students, groups[len(groups)-1].Students)
	if err := WriteTable(w, title, headers, rows, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}); err != nil {
		return err
	}
	if len(groups) < 2 {
		return nil
	}
	if opts.Title == "" {
		opts.Title = "By student count"
	}
	if err := Plot(w, []Series{
		{Name: "Mean occupancy", Values: mean},
		{Name: "High reserve time", Values: reserve},
	}, opts); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// RenderHistory prints stored run submissions, newest first.
func RenderHistory(w io.Writer, runs []model.RunHistory) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	headers := []string{"ID", "Submitted", "Kind", "Grid", "Students", "Ratios", "Status", "Message"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		students := strconv.Itoa(r.MinStudents)
		if r.Kind == model.RunRange {
			students = fmt.Sprintf("%d-%d/%d x%d", r.MinStudents, r.MaxStudents, r.StudentStep, r.RepeatCount)
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.SubmittedAt.Local().Format("2006-01-02 15:04"),
			string(r.Kind),
			fmt.Sprintf("%dx%d", r.Rows, r.Cols),
			students,
			fmt.Sprintf("%d/%d/%d", r.Humanities, r.Science, r.Engineering),
			r.Status,
			truncate(r.Message, 40),
		})
	}
	return WriteTable(w, "Run History", headers, rows, map[int]bool{0: true})
}

// RenderRecords prints a record listing.
func RenderRecords(w io.Writer, entries []model.RecordEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.SeatCount, e.Name, e.Path})
	}
	return WriteTable(w, "Simulation Records", []string{"Seats", "File", "Path"}, rows, map[int]bool{0: true})
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
