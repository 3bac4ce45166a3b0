// Package formui provides the Bubble Tea run submission forms.
package formui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/ratio"
	"github.com/verte-zerg/seatplay/internal/store"
)

const (
	tabSingle = iota
	tabRange
)

// Submitter sends run requests to the simulation backend.
type Submitter interface {
	SubmitRun(ctx context.Context, req model.RunRequest) (model.RunResponse, error)
	SubmitRange(ctx context.Context, req model.RangeRunRequest) (model.RunResponse, error)
}

// History persists submitted runs.
type History interface {
	InsertRun(ctx context.Context, run model.RunHistory) (int64, error)
}

// Options configures the forms.
type Options struct {
	Backend        Submitter
	History        History
	Single         ratio.Triple
	Range          ratio.Triple
	// StartWithRange opens the range form first.
	StartWithRange bool
	Timeout        time.Duration
	Log            logrus.FieldLogger
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	sliderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

type submittedMsg struct {
	kind model.RunKind
	resp model.RunResponse
	err  error
}

// Model implements the Bubble Tea run forms.
type Model struct {
	backend Submitter
	history History
	timeout time.Duration
	log     logrus.FieldLogger

	forms     [2]*form
	activeTab int

	busy    bool
	errMsg  string
	result  string
	results []model.RangeResult

	width  int
	height int
}

// NewModel constructs the run forms.
func NewModel(opts Options) *Model {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Model{
		backend: opts.Backend,
		history: opts.History,
		timeout: opts.Timeout,
		log:     log.WithField("component", "forms"),
	}
	m.forms[tabSingle] = newSingleForm(opts.Single)
	m.forms[tabRange] = newRangeForm(opts.Range)
	if opts.StartWithRange {
		m.activeTab = tabRange
	}
	m.forms[m.activeTab].setFocus(0)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case submittedMsg:
		m.handleSubmitted(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (msg.String() == "q" && !m.active().editingText()) {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyTab, tea.KeyDown:
			return m, m.active().setFocus(m.active().focus + 1)
		case tea.KeyShiftTab, tea.KeyUp:
			return m, m.active().setFocus(m.active().focus - 1)
		case tea.KeyCtrlRight, tea.KeyCtrlLeft:
			return m, m.switchTab()
		case tea.KeyEnter:
			return m, m.submit()
		}
		f := m.active()
		if f.onRatio() {
			f.updateRatio(msg.String())
			return m, nil
		}
		if f.onToggle() {
			if msg.Type == tea.KeySpace {
				f.multiprocessing = !f.multiprocessing
			}
			return m, nil
		}
		return m, f.updateInput(msg)
	}
	return m, nil
}

func (m *Model) active() *form {
	return m.forms[m.activeTab]
}

func (m *Model) switchTab() tea.Cmd {
	m.active().blurAll()
	m.activeTab = 1 - m.activeTab
	m.errMsg = ""
	m.result = ""
	m.results = nil
	return m.active().setFocus(0)
}

// submit validates the active form and sends it to the backend.
func (m *Model) submit() tea.Cmd {
	m.errMsg = ""
	m.result = ""
	m.results = nil
	if m.backend == nil {
		m.errMsg = "no simulation backend configured"
		return nil
	}
	backend := m.backend
	timeout := m.timeout
	switch m.activeTab {
	case tabRange:
		req, err := m.forms[tabRange].rangeRequest()
		if err != nil {
			m.errMsg = err.Error()
			return nil
		}
		m.busy = true
		m.result = fmt.Sprintf("Running %d simulations...", model.PlannedRuns(req))
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			resp, err := backend.SubmitRange(ctx, req)
			m.record(store.HistoryFromRange(req, resp, err))
			return submittedMsg{kind: model.RunRange, resp: resp, err: err}
		}
	default:
		req, err := m.forms[tabSingle].runRequest()
		if err != nil {
			m.errMsg = err.Error()
			return nil
		}
		m.busy = true
		m.result = "Starting simulation..."
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			resp, err := backend.SubmitRun(ctx, req)
			m.record(store.HistoryFromRun(req, resp, err))
			return submittedMsg{kind: model.RunSingle, resp: resp, err: err}
		}
	}
}

// record stores a history entry. It only touches the history store, so it
// is safe to call from a command goroutine.
func (m *Model) record(h model.RunHistory) {
	if m.history == nil {
		return
	}
	if _, err := m.history.InsertRun(context.Background(), h); err != nil {
		m.log.WithError(err).Warn("failed to save run history")
	}
}

func (m *Model) handleSubmitted(msg submittedMsg) {
	m.busy = false
	if msg.err != nil {
		m.result = ""
		m.errMsg = fmt.Sprintf("Error: %v", msg.err)
		return
	}
	if !msg.resp.OK() {
		m.result = ""
		m.errMsg = "Error: " + msg.resp.Message
		return
	}
	m.errMsg = ""
	m.result = msg.resp.Message
	if m.result == "" {
		m.result = "Simulation completed successfully!"
	}
	m.results = msg.resp.Results
	m.log.WithFields(logrus.Fields{"kind": msg.kind, "results": len(msg.resp.Results)}).Info("run completed")
}

// View implements tea.Model.
func (m *Model) View() string {
	tabs := []string{"Single Run", "Range Run"}
	parts := make([]string, len(tabs))
	for i, tab := range tabs {
		if i == m.activeTab {
			parts[i] = activeNavStyle.Render(tab)
		} else {
			parts[i] = inactiveNavStyle.Render(tab)
		}
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, parts...), ""}
	lines = append(lines, m.active().view()...)
	lines = append(lines, "")
	if m.activeTab == tabRange {
		if req, err := m.forms[tabRange].rangeRequest(); err == nil {
			lines = append(lines, headerStyle.Render(fmt.Sprintf("Planned runs: %d", model.PlannedRuns(req))))
		}
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	if m.result != "" {
		lines = append(lines, successStyle.Render(m.result))
	}
	if len(m.results) > 0 {
		lines = append(lines, renderResults(m.results))
	}
	lines = append(lines, "", headerStyle.Render("tab/shift+tab: field  left/right: adjust ratio  space: toggle  ctrl+left/right: form  enter: submit  q: quit"))
	content := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func renderResults(results []model.RangeResult) string {
	counts := make([]string, len(results))
	for i, r := range results {
		counts[i] = strconv.Itoa(r.Students)
	}
	return headerStyle.Render(fmt.Sprintf("Completed %d runs (students: %s)", len(results), strings.Join(counts, ", ")))
}

// form is one run form with its own independent ratio group.
type form struct {
	kind            model.RunKind
	labels          []string
	inputs          []textinput.Model
	ratios          *ratio.Group
	multiprocessing bool
	focus           int
}

func newSingleForm(initial ratio.Triple) *form {
	f := &form{kind: model.RunSingle, ratios: ratio.NewGroup(initial)}
	f.addInput("Rows", "3")
	f.addInput("Columns", "3")
	f.addInput("Total students", "9")
	f.addInput("Cleaning time", "0")
	return f
}

func newRangeForm(initial ratio.Triple) *form {
	f := &form{kind: model.RunRange, ratios: ratio.NewGroup(initial)}
	f.addInput("Rows", "3")
	f.addInput("Columns", "3")
	f.addInput("Min students", "1")
	f.addInput("Max students", "9")
	f.addInput("Student step", "1")
	f.addInput("Repeat count", "1")
	f.addInput("Cleaning time", "0")
	return f
}

func (f *form) addInput(label, value string) {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 6
	input.Width = 8
	input.Validate = digitsOnly
	input.Cursor.SetMode(cursor.CursorBlink)
	input.SetValue(value)
	f.labels = append(f.labels, label)
	f.inputs = append(f.inputs, input)
}

func digitsOnly(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("digits only")
		}
	}
	return nil
}

// focus positions: inputs, then the three ratio fields, then the toggle.
func (f *form) positions() int {
	return len(f.inputs) + len(ratio.Fields) + 1
}

func (f *form) onRatio() bool {
	return f.focus >= len(f.inputs) && f.focus < len(f.inputs)+len(ratio.Fields)
}

func (f *form) onToggle() bool {
	return f.focus == f.positions()-1
}

func (f *form) editingText() bool {
	return f.focus < len(f.inputs)
}

func (f *form) ratioField() ratio.Field {
	return ratio.Fields[f.focus-len(f.inputs)]
}

func (f *form) setFocus(idx int) tea.Cmd {
	n := f.positions()
	if idx < 0 {
		idx = n - 1
	}
	if idx >= n {
		idx = 0
	}
	f.focus = idx
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == idx {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *form) blurAll() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *form) updateInput(msg tea.KeyMsg) tea.Cmd {
	if !f.editingText() {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// updateRatio moves the focused slider and rebalances the group.
func (f *form) updateRatio(keyName string) {
	field := f.ratioField()
	switch keyName {
	case "left", "h":
		f.ratios.Nudge(field, -1)
	case "right", "l":
		f.ratios.Nudge(field, 1)
	case "pgdown", "[":
		f.ratios.Nudge(field, -10)
	case "pgup", "]":
		f.ratios.Nudge(field, 10)
	case "home":
		f.ratios.Set(field, ratio.DefaultBounds.Min)
	case "end":
		f.ratios.Set(field, ratio.DefaultBounds.Max)
	}
}

func (f *form) value(i int) int {
	n, err := strconv.Atoi(strings.TrimSpace(f.inputs[i].Value()))
	if err != nil {
		return 0
	}
	return n
}

func (f *form) runRequest() (model.RunRequest, error) {
	t := f.ratios.Triple()
	req := model.RunRequest{
		Rows:               f.value(0),
		Cols:               f.value(1),
		TotalStudents:      f.value(2),
		CleaningTime:       f.value(3),
		HumanitiesRatio:    t.Humanities,
		ScienceRatio:       t.Science,
		EngineeringRatio:   t.Engineering,
		UseMultiprocessing: f.multiprocessing,
	}
	return req, model.ValidateRun(req)
}

func (f *form) rangeRequest() (model.RangeRunRequest, error) {
	t := f.ratios.Triple()
	req := model.RangeRunRequest{
		Rows:               f.value(0),
		Cols:               f.value(1),
		MinStudents:        f.value(2),
		MaxStudents:        f.value(3),
		StudentStep:        f.value(4),
		RepeatCount:        f.value(5),
		CleaningTime:       f.value(6),
		HumanitiesRatio:    t.Humanities,
		ScienceRatio:       t.Science,
		EngineeringRatio:   t.Engineering,
		UseMultiprocessing: f.multiprocessing,
	}
	return req, model.ValidateRange(req)
}

func (f *form) view() []string {
	lines := make([]string, 0, f.positions()+1)
	for i, input := range f.inputs {
		lines = append(lines, f.label(i, f.labels[i])+input.View())
	}
	t := f.ratios.Triple()
	for i, field := range ratio.Fields {
		pos := len(f.inputs) + i
		v := t.Get(field)
		lines = append(lines, f.label(pos, titleCase(field.String()))+sliderStyle.Render(slider(v, 20))+fmt.Sprintf(" %3d%%", v))
	}
	lines = append(lines, headerStyle.Render(fmt.Sprintf("%-16s %d%%", "Total", t.Sum())))
	check := "[ ]"
	if f.multiprocessing {
		check = "[x]"
	}
	lines = append(lines, f.label(f.positions()-1, "Multiprocessing")+check)
	return lines
}

func (f *form) label(pos int, text string) string {
	padded := fmt.Sprintf("%-16s ", text)
	if pos == f.focus {
		return focusStyle.Render(padded)
	}
	return padded
}

// slider draws a value in [0,100] as a bar of width cells.
func slider(v, width int) string {
	filled := v * width / ratio.Total
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
