// Package report renders records, analyses and run history as plain text.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Series is a named sequence of values on a percentage scale.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions sizes a plot. Zero values pick defaults; a zero Width fits the
// terminal.
type PlotOptions struct {
	Title  string
	Width  int
	Height int
	Color  bool
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackTermWidth = 80
	axisGap           = " │ "
	axisLabelWidth    = 4
	colorReset        = "\x1b[0m"
)

var seriesColors = []string{"\x1b[36m", "\x1b[33m", "\x1b[35m", "\x1b[32m"}

// Dash patterns as (period, on) pairs over the braille x axis.
var seriesDashes = [][2]int{{1, 1}, {6, 3}, {4, 1}}

// Plot draws series on a fixed 0-100% axis with braille dots. Each series is
// resampled to the plot width.
func Plot(w io.Writer, series []Series, opts PlotOptions) error {
	kept := series[:0:0]
	for _, s := range series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	layers := make([]*canvas, len(kept))
	for i, s := range kept {
		layers[i] = newCanvas(width, height)
		dash := seriesDashes[i%len(seriesDashes)]
		layers[i].polyline(Resample(s.Values, width), dash[0], dash[1])
	}

	if opts.Title != "" {
		if _, err := fmt.Fprintln(w, opts.Title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var line strings.Builder
		line.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabel(y, height), axisGap))
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, layer := range layers {
				if m := layer.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			ch := rune(0x2800 + int(mask))
			if opts.Color && owner >= 0 {
				line.WriteString(seriesColors[owner%len(seriesColors)])
				line.WriteRune(ch)
				line.WriteString(colorReset)
				continue
			}
			line.WriteRune(ch)
		}
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, legend(kept, opts.Color))
	return err
}

// PlotWidthFor returns the drawable width within totalWidth columns.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	width := totalWidth - axisLabelWidth - len([]rune(axisGap))
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

// UseColor reports whether w is a terminal that accepts ANSI color.
func UseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func axisLabel(row, height int) string {
	switch {
	case row == 0:
		return "100%"
	case row == height-1:
		return "0%"
	case height > 2 && row == height/2:
		return "50%"
	default:
		return ""
	}
}

func legend(series []Series, color bool) string {
	names := []string{"solid", "dashed", "dotted"}
	parts := make([]string, len(series))
	for i, s := range series {
		last := s.Values[len(s.Values)-1]
		label := fmt.Sprintf("%s (%s, last %.1f%%)", s.Name, names[i%len(names)], last)
		if color {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts[i] = label
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// Resample stretches or averages values to exactly width points.
func Resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			lo := i * n / width
			hi := (i + 1) * n / width
			if hi <= lo {
				hi = lo + 1
			}
			var sum float64
			for _, v := range values[lo:hi] {
				sum += v
			}
			out[i] = sum / float64(hi-lo)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			lo := int(math.Floor(pos))
			if lo >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(lo)
			out[i] = values[lo]*(1-frac) + values[lo+1]*frac
		}
	}
	return out
}

// canvas holds braille cells; each cell is 2 dots wide and 4 dots tall.
type canvas struct {
	cells  [][]uint8
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for i := range cells {
		cells[i] = make([]uint8, width)
	}
	return &canvas{cells: cells, width: width, height: height}
}

// braille dot bits indexed by [dx][dy].
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) dot(x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy][cx] |= dotBits[x%2][y%4]
}

// polyline plots percentages (0-100) one point per cell column.
func (c *canvas) polyline(values []float64, period, on int) {
	dots := c.height * 4
	px, py := -1, -1
	for i, v := range values {
		v = math.Max(0, math.Min(100, v))
		x := i * 2
		y := int(math.Round((1 - v/100) * float64(dots-1)))
		if px < 0 {
			c.dot(x, y)
		} else {
			c.segment(px, py, x, y, period, on)
		}
		px, py = x, y
	}
}

// segment draws a Bresenham line, skipping dots outside the dash pattern.
func (c *canvas) segment(x0, y0, x1, y1, period, on int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if period <= 1 || x0%period < on {
			c.dot(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
