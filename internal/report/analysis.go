package report

import (
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/playback"
	"github.com/verte-zerg/seatplay/internal/record"
)

// HighReserveShare is the fraction of seats that marks a step as heavily reserved.
const HighReserveShare = 0.3

const sparkLevels = " .:-=+*#%@"

// RecordSeries holds the per-step occupancy and reservation percentages of a record.
type RecordSeries struct {
	Times     []string
	Occupancy []float64
	Reserved  []float64
}

// Summary describes one record.
type Summary struct {
	Name          string
	Scale         model.Scale
	Steps         int
	PeakOccupancy float64
	MeanOccupancy float64
	LastOccupancy float64
	PeakReserved  int
	HighReserve   float64
}

// SeriesOf derives plot series from rec. Reservations are expressed as a
// percentage of the record's seats.
func SeriesOf(rec model.Record) RecordSeries {
	seats := seatTotal(rec)
	out := RecordSeries{
		Times:     make([]string, len(rec.Steps)),
		Occupancy: make([]float64, len(rec.Steps)),
		Reserved:  make([]float64, len(rec.Steps)),
	}
	for i, step := range rec.Steps {
		out.Times[i] = step.Time
		out.Occupancy[i] = playback.ParseTakenRate(step.TakenRate).Percent
		if seats > 0 {
			out.Reserved[i] = float64(step.ReservedSeats) / float64(seats) * 100
		}
	}
	return out
}

// Summarize computes occupancy and reservation figures for rec.
func Summarize(rec model.Record) Summary {
	s := Summary{Name: rec.Name, Scale: record.ScaleOf(rec), Steps: len(rec.Steps)}
	if len(rec.Steps) == 0 {
		return s
	}
	seats := seatTotal(rec)
	threshold := float64(seats) * HighReserveShare
	var sum float64
	high := 0
	for _, step := range rec.Steps {
		pct := playback.ParseTakenRate(step.TakenRate).Percent
		sum += pct
		if pct > s.PeakOccupancy {
			s.PeakOccupancy = pct
		}
		if step.ReservedSeats > s.PeakReserved {
			s.PeakReserved = step.ReservedSeats
		}
		if seats > 0 && float64(step.ReservedSeats) >= threshold {
			high++
		}
	}
	s.MeanOccupancy = sum / float64(len(rec.Steps))
	s.LastOccupancy = playback.ParseTakenRate(rec.Steps[len(rec.Steps)-1].TakenRate).Percent
	if seats > 0 {
		s.HighReserve = float64(high) / float64(len(rec.Steps))
	}
	return s
}

// StudentSummary averages the summaries of every run with one student count.
type StudentSummary struct {
	Students      int
	Runs          int
	MeanOccupancy float64
	PeakOccupancy float64
	HighReserve   float64
}

// Analyze groups summaries by student count, ordered by student count.
func Analyze(summaries []Summary) []StudentSummary {
	groups := map[int]*StudentSummary{}
	for _, s := range summaries {
		g, ok := groups[s.Scale.Students]
		if !ok {
			g = &StudentSummary{Students: s.Scale.Students}
			groups[s.Scale.Students] = g
		}
		g.Runs++
		g.MeanOccupancy += s.MeanOccupancy
		g.PeakOccupancy += s.PeakOccupancy
		g.HighReserve += s.HighReserve
	}
	out := make([]StudentSummary, 0, len(groups))
	for _, g := range groups {
		n := float64(g.Runs)
		g.MeanOccupancy /= n
		g.PeakOccupancy /= n
		g.HighReserve /= n
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Students < out[j].Students
	})
	return out
}

// Sparkline renders percentages (0-100) as one line of ASCII levels.
func Sparkline(values []float64) string {
	var b strings.Builder
	top := len(sparkLevels) - 1
	for _, v := range values {
		v = math.Max(0, math.Min(100, v))
		b.WriteByte(sparkLevels[int(math.Round(v/100*float64(top)))])
	}
	return b.String()
}

// seatTotal prefers the configured seat list, then the scale, then the grid
// extent of the first step with seat state.
func seatTotal(rec model.Record) int {
	if rec.Config != nil && rec.Config.SeatCount > 0 {
		return rec.Config.SeatCount
	}
	if rec.Config != nil {
		if scale, err := record.ParseScale(rec.Config.TestScale); err == nil {
			return scale.Seats()
		}
	}
	for _, step := range rec.Steps {
		if len(step.SeatState) == 0 {
			continue
		}
		g := seatGrid(step.SeatState)
		return g.Rows * g.Cols
	}
	return 0
}
