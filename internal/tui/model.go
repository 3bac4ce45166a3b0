// Package tui provides the Bubble Tea playback viewer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/playback"
	"github.com/verte-zerg/seatplay/internal/record"
	"github.com/verte-zerg/seatplay/internal/seat"
)

// DefaultInterval is the playback tick interval.
const DefaultInterval = time.Second

// Catalog lists the records a viewer can open.
type Catalog interface {
	Records(ctx context.Context) ([]model.RecordEntry, error)
}

// Options configures the viewer.
type Options struct {
	Source   record.Source
	Catalog  Catalog
	Interval time.Duration
	Fallback seat.Extent
	Log      logrus.FieldLogger
	// Initial is loaded on start instead of showing the picker.
	Initial string
}

type tickMsg struct {
	id uint64
}

type recordsMsg struct {
	entries []model.RecordEntry
	err     error
}

type loadedMsg struct {
	rec model.Record
	err error
}

// Model implements the Bubble Tea playback UI.
type Model struct {
	source   record.Source
	catalog  Catalog
	interval time.Duration
	log      logrus.FieldLogger

	ctrl   *playback.Controller
	keys   keyMap
	help   help.Model
	bar    progress.Model
	picker table.Model

	entries []model.RecordEntry
	picking bool
	initial string

	recordName string
	scale      model.Scale
	snap       playback.Snapshot
	hasSnap    bool
	progress   float64
	status     string
	errMsg     string

	width  int
	height int
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyles = map[string]lipgloss.Style{
		"playing":   lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")),
		"paused":    lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")),
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("#40A9FF")),
		"stopped":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
	}
)

// NewModel constructs a playback viewer.
func NewModel(opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Model{
		source:   opts.Source,
		catalog:  opts.Catalog,
		interval: opts.Interval,
		log:      log.WithField("component", "viewer"),
		keys:     newKeyMap(),
		help:     help.New(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		picker:   newPicker(),
		initial:  opts.Initial,
		picking:  opts.Initial == "",
		status:   "idle",
		scale:    record.FallbackScale,
	}
	m.ctrl = playback.New(playback.SinkFunc(m.apply), playback.WithLogger(m.log), playback.WithFallback(opts.Fallback))
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.initial != "" {
		return m.loadRecord(m.initial)
	}
	return m.listRecords()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = maxInt(10, msg.Width-4)
		m.help.Width = msg.Width
		m.picker.SetWidth(msg.Width)
		m.picker.SetHeight(maxInt(3, msg.Height-4))
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg.id)
	case recordsMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("failed to list records: %v", msg.err)
			return m, nil
		}
		m.setEntries(msg.entries)
		return m, nil
	case loadedMsg:
		m.handleLoaded(msg)
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.ctrl.Stop()
			return m, tea.Quit
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updatePlayer(msg)
	}
	return m, nil
}

func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.recordName != "" {
			m.picking = false
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.listRecords()
	case key.Matches(msg, m.keys.Open):
		row := m.picker.SelectedRow()
		if len(row) < 3 {
			return m, nil
		}
		return m, m.loadRecord(row[2])
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) updatePlayer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle()
	case key.Matches(msg, m.keys.Stop):
		m.ctrl.Stop()
		return m, nil
	case key.Matches(msg, m.keys.Faster):
		m.interval = clampInterval(m.interval / 2)
		return m, m.rearm()
	case key.Matches(msg, m.keys.Slower):
		m.interval = clampInterval(m.interval * 2)
		return m, m.rearm()
	case key.Matches(msg, m.keys.Open):
		if m.ctrl.State() == playback.Playing {
			m.errMsg = playback.ErrBusy.Error()
			return m, nil
		}
		m.picking = true
		return m, m.listRecords()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

// toggle starts or resumes playback, or pauses it when playing.
func (m *Model) toggle() tea.Cmd {
	m.errMsg = ""
	if m.ctrl.State() == playback.Playing {
		if err := m.ctrl.Pause(); err != nil {
			m.errMsg = err.Error()
			return nil
		}
		m.status = "paused"
		return nil
	}
	timer, err := m.ctrl.Start(m.interval)
	if err != nil {
		m.errMsg = err.Error()
		return nil
	}
	if m.ctrl.Cursor() == 0 {
		m.progress = 0
	}
	m.status = "playing"
	return scheduleTick(timer)
}

// rearm replaces the running timer so a new interval takes effect.
func (m *Model) rearm() tea.Cmd {
	if m.ctrl.State() != playback.Playing {
		return nil
	}
	if err := m.ctrl.Pause(); err != nil {
		return nil
	}
	timer, err := m.ctrl.Start(m.interval)
	if err != nil {
		m.errMsg = err.Error()
		return nil
	}
	return scheduleTick(timer)
}

func (m *Model) handleTick(id uint64) tea.Cmd {
	if !m.ctrl.Tick(id) {
		return nil
	}
	timer, ok := m.ctrl.ActiveTimer()
	if !ok {
		return nil
	}
	return scheduleTick(timer)
}

func scheduleTick(timer playback.Timer) tea.Cmd {
	id := timer.ID
	return tea.Tick(timer.Interval, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

func (m *Model) handleLoaded(msg loadedMsg) {
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		return
	}
	if err := m.ctrl.Load(msg.rec); err != nil {
		if errors.Is(err, playback.ErrEmptyRecord) {
			m.errMsg = fmt.Sprintf("%s: %v", msg.rec.Name, err)
		} else {
			m.errMsg = err.Error()
		}
		return
	}
	m.errMsg = ""
	m.picking = false
	m.recordName = msg.rec.Name
	m.scale = record.ScaleOf(msg.rec)
	m.progress = 0
	m.status = "loaded"
	m.snap, m.hasSnap = m.ctrl.Preview()
	m.snap.ProgressPercent = 0
}

// apply receives controller events. It runs synchronously inside Update.
func (m *Model) apply(e playback.Event) {
	switch e := e.(type) {
	case playback.Snapshot:
		m.snap = e
		m.hasSnap = true
		m.progress = e.ProgressPercent
	case playback.Finished:
		m.progress = e.ProgressPercent
		m.status = "completed"
	case playback.Reset:
		m.progress = e.ProgressPercent
		m.status = e.Status
		m.snap, m.hasSnap = m.ctrl.Preview()
		m.snap.ProgressPercent = 0
	}
}

func (m *Model) listRecords() tea.Cmd {
	catalog := m.catalog
	if catalog == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		entries, err := catalog.Records(ctx)
		return recordsMsg{entries: entries, err: err}
	}
}

func (m *Model) loadRecord(name string) tea.Cmd {
	src := m.source
	if src == nil {
		return func() tea.Msg {
			return loadedMsg{err: errors.New("no record source configured")}
		}
	}
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rec, err := record.Load(ctx, src, name)
		if err != nil {
			log.WithError(err).WithField("record", name).Warn("load failed")
		}
		return loadedMsg{rec: rec, err: err}
	}
}

func (m *Model) setEntries(entries []model.RecordEntry) {
	m.entries = entries
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{e.SeatCount, e.Name, e.Path})
	}
	m.picker.SetRows(rows)
	m.errMsg = ""
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.picking {
		return m.viewPicker()
	}
	sections := []string{m.renderHeader()}
	if m.hasSnap {
		sections = append(sections, renderGrid(m.snap.Grid, m.width))
	} else {
		sections = append(sections, mutedStyle.Render("Press space to start playback."))
	}
	sections = append(sections, renderLegend(), m.bar.ViewAs(m.progress/100))
	if m.errMsg != "" {
		sections = append(sections, errorStyle.Render(m.errMsg))
	}
	sections = append(sections, m.renderFooter(), m.help.View(m.keys))
	content := strings.Join(sections, "\n\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewPicker() string {
	lines := []string{titleStyle.Render("Simulation Records")}
	switch {
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render(m.errMsg))
	case len(m.entries) == 0:
		lines = append(lines, mutedStyle.Render("No records found."))
	default:
		lines = append(lines, m.picker.View())
	}
	lines = append(lines, footerStyle.Render("enter: open  r: refresh  esc: back  q: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	name := m.recordName
	if name == "" {
		name = "(no record)"
	}
	status := m.status
	if style, ok := statusStyles[status]; ok {
		status = style.Render(status)
	}
	params := fmt.Sprintf("Grid %d x %d  Seats %d  Students %d  Interval %s",
		m.scale.Rows, m.scale.Cols, m.scale.Seats(), m.scale.Students, m.interval)
	return titleStyle.Render(name) + "  " + status + "\n" + mutedStyle.Render(params)
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("Progress %d%%", int(m.progress))}
	if m.hasSnap {
		segments = append(segments,
			fmt.Sprintf("Step %d/%d", m.snap.StepNumber, m.snap.TotalSteps),
			"Time "+displayTime(m.snap.Time),
			fmt.Sprintf("Occupied %d (%.1f%%)", m.snap.OccupiedCount, m.snap.OccupancyPercent),
			fmt.Sprintf("Reserved %d", m.snap.ReservedCount),
		)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func displayTime(t string) string {
	if t == "" {
		return "-"
	}
	return t
}

func newPicker() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Seats", Width: 6},
			{Title: "File", Width: 16},
			{Title: "Path", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func clampInterval(d time.Duration) time.Duration {
	const (
		minInterval = 50 * time.Millisecond
		maxInterval = 10 * time.Second
	)
	if d < minInterval {
		return minInterval
	}
	if d > maxInterval {
		return maxInterval
	}
	return d
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
