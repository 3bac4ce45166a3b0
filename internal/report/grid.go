package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/seatplay/internal/playback"
	"github.com/verte-zerg/seatplay/internal/seat"
)

func seatGrid(state map[string]string) seat.Grid {
	return seat.Decode(state, seat.DefaultFallback)
}

// GridLines renders a grid as rows of bracketed status indicators with a
// column ruler.
func GridLines(g seat.Grid) []string {
	if g.Rows == 0 || g.Cols == 0 {
		return []string{"(no seats)"}
	}
	lines := make([]string, 0, g.Rows+1)
	var ruler strings.Builder
	ruler.WriteString("    ")
	for c := 0; c < g.Cols; c++ {
		ruler.WriteString(fmt.Sprintf("%3d ", c))
	}
	lines = append(lines, strings.TrimRight(ruler.String(), " "))
	for r := 0; r < g.Rows; r++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%3d ", r))
		for c := 0; c < g.Cols; c++ {
			row.WriteString("[" + g.At(r, c).Status.Indicator() + "] ")
		}
		lines = append(lines, strings.TrimRight(row.String(), " "))
	}
	return lines
}

// StatusLine formats the metrics of a snapshot on one line.
func StatusLine(s playback.Snapshot) string {
	return fmt.Sprintf("Step %d/%d  Time %s  Occupied %d (%.1f%%)  Reserved %d  Progress %d%%",
		s.StepNumber, s.TotalSteps, s.Time, s.OccupiedCount, s.OccupancyPercent, s.ReservedCount, int(s.ProgressPercent))
}

// Legend lists the status indicators.
func Legend() string {
	parts := make([]string, len(seat.Statuses))
	for i, s := range seat.Statuses {
		parts[i] = s.Indicator() + "=" + s.Label()
	}
	return strings.Join(parts, "  ")
}

// WriteFrame writes one playback frame: status line, grid and a blank line.
func WriteFrame(w io.Writer, s playback.Snapshot) error {
	if _, err := fmt.Fprintln(w, StatusLine(s)); err != nil {
		return err
	}
	for _, line := range GridLines(s.Grid) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
