package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/seatplay/internal/seat"
)

const rowLabelWidth = 4

var cellStyles = map[seat.Status]lipgloss.Style{
	seat.Vacant:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
	seat.Taken:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#A8071A")).Bold(true),
	seat.Reserved: lipgloss.NewStyle().Foreground(lipgloss.Color("#1F1F1F")).Background(lipgloss.Color("#C89A3A")),
	seat.Signed:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#237804")),
}

// cellText is the padded, unstyled text of one seat.
func cellText(s seat.Status, width int) string {
	return runewidth.FillRight(" "+s.Indicator(), width)
}

// cellWidth picks the widest cell that fits cols columns in width. Zero
// width means unconstrained.
func cellWidth(cols, width int) int {
	const (
		wide   = 4
		narrow = 2
	)
	if width <= 0 || cols <= 0 {
		return wide
	}
	if rowLabelWidth+cols*wide <= width {
		return wide
	}
	return narrow
}

// renderGrid draws the seat grid. Grids wider than width are split into
// bands of columns stacked vertically.
func renderGrid(g seat.Grid, width int) string {
	if g.Rows == 0 || g.Cols == 0 {
		return mutedStyle.Render("(no seats)")
	}
	cw := cellWidth(g.Cols, width)
	perBand := g.Cols
	if width > 0 {
		perBand = maxInt(1, (width-rowLabelWidth)/cw)
	}
	var bands []string
	for start := 0; start < g.Cols; start += perBand {
		end := start + perBand
		if end > g.Cols {
			end = g.Cols
		}
		bands = append(bands, renderBand(g, start, end, cw))
	}
	return strings.Join(bands, "\n\n")
}

func renderBand(g seat.Grid, start, end, cw int) string {
	lines := make([]string, 0, g.Rows+1)
	var ruler strings.Builder
	ruler.WriteString(strings.Repeat(" ", rowLabelWidth))
	for c := start; c < end; c++ {
		ruler.WriteString(runewidth.FillRight(columnLabel(c, cw), cw))
	}
	lines = append(lines, mutedStyle.Render(strings.TrimRight(ruler.String(), " ")))
	for r := 0; r < g.Rows; r++ {
		var row strings.Builder
		row.WriteString(mutedStyle.Render(runewidth.FillRight(fmt.Sprintf("%d", r), rowLabelWidth)))
		for c := start; c < end; c++ {
			status := g.At(r, c).Status
			row.WriteString(cellStyles[status].Render(cellText(status, cw)))
		}
		lines = append(lines, row.String())
	}
	return strings.Join(lines, "\n")
}

// columnLabel keeps the trailing digits of c that fit in a cell with a one
// column gap.
func columnLabel(c, cw int) string {
	label := strconv.Itoa(c)
	if keep := cw - 1; keep > 0 && len(label) > keep {
		label = label[len(label)-keep:]
	}
	return label
}

func renderLegend() string {
	parts := make([]string, len(seat.Statuses))
	for i, s := range seat.Statuses {
		parts[i] = cellStyles[s].Render(cellText(s, 3)) + " " + mutedStyle.Render(s.Label())
	}
	return strings.Join(parts, "  ")
}
