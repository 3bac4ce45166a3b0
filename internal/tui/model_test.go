package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/playback"
	"github.com/verte-zerg/seatplay/internal/seat"
)

type memSource map[string]string

func (s memSource) Fetch(_ context.Context, name string) ([]byte, error) {
	body, ok := s[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

func (s memSource) Records(context.Context) ([]model.RecordEntry, error) {
	var out []model.RecordEntry
	for name := range s {
		out = append(out, model.RecordEntry{Path: name, Name: name, SeatCount: "4"})
	}
	return out, nil
}

const twoSteps = `[
	{"test_name": "t", "test_scale": "2*2->3"},
	{"time": "7:00", "seats_taken_state": {"0,0": "T"}, "taken_rate": " 1 (25.0%)", "reversed_seats": 0},
	{"time": "7:15", "seats_taken_state": {"1,1": "R"}, "taken_rate": " 2 (50.0%)", "reversed_seats": 1}
]`

func newTestModel(src memSource, initial string) *Model {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewModel(Options{Source: src, Catalog: src, Interval: 10 * time.Millisecond, Log: log, Initial: initial})
}

func runCmd(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected command")
	}
	m.Update(cmd())
}

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewerPlaysRecordToCompletion(t *testing.T) {
	m := newTestModel(memSource{"4_seats_simulations/3-1.json": twoSteps}, "4_seats_simulations/3-1.json")
	runCmd(t, m, m.Init())
	if m.picking || m.status != "loaded" || m.scale.Students != 3 {
		t.Fatalf("expected loaded record, got picking=%v status=%s scale=%+v err=%q", m.picking, m.status, m.scale, m.errMsg)
	}

	_, cmd := m.Update(keyMsg(" "))
	if m.status != "playing" {
		t.Fatalf("expected playing, got %s", m.status)
	}
	timer, ok := m.ctrl.ActiveTimer()
	if !ok {
		t.Fatalf("expected armed timer")
	}
	if cmd == nil {
		t.Fatalf("expected tick command")
	}

	_, next := m.Update(tickMsg{id: timer.ID})
	if m.snap.StepNumber != 1 || m.snap.Grid.At(0, 0).Status != seat.Taken {
		t.Fatalf("unexpected first snapshot: %+v", m.snap)
	}
	if next == nil {
		t.Fatalf("expected another tick")
	}
	m.Update(tickMsg{id: timer.ID})
	if m.status != "completed" || m.progress != 100 {
		t.Fatalf("expected completion, got status=%s progress=%v", m.status, m.progress)
	}
	if !strings.Contains(m.renderFooter(), "Occupied 2 (50.0%)") {
		t.Fatalf("unexpected footer: %s", m.renderFooter())
	}
}

func TestViewerIgnoresStaleTicks(t *testing.T) {
	m := newTestModel(memSource{"r.json": twoSteps}, "r.json")
	runCmd(t, m, m.Init())
	m.Update(keyMsg(" "))
	first, _ := m.ctrl.ActiveTimer()
	m.Update(keyMsg(" "))
	if m.status != "paused" {
		t.Fatalf("expected paused, got %s", m.status)
	}
	m.Update(keyMsg(" "))
	second, _ := m.ctrl.ActiveTimer()
	if first.ID == second.ID {
		t.Fatalf("expected a fresh timer after resume")
	}
	m.Update(tickMsg{id: first.ID})
	if m.ctrl.Cursor() != 0 {
		t.Fatalf("stale tick advanced playback")
	}
}

func TestViewerStopResets(t *testing.T) {
	m := newTestModel(memSource{"r.json": twoSteps}, "r.json")
	runCmd(t, m, m.Init())
	m.Update(keyMsg(" "))
	timer, _ := m.ctrl.ActiveTimer()
	m.Update(tickMsg{id: timer.ID})
	m.Update(keyMsg("s"))
	if m.status != "stopped" || m.progress != 0 {
		t.Fatalf("expected stopped reset, got status=%s progress=%v", m.status, m.progress)
	}
	if m.ctrl.State() != playback.Idle || m.ctrl.Cursor() != 0 {
		t.Fatalf("unexpected controller state %s cursor %d", m.ctrl.State(), m.ctrl.Cursor())
	}
}

func TestViewerReportsLoadFailure(t *testing.T) {
	m := newTestModel(memSource{"empty.json": `[{"test_name": "t", "test_scale": "1*1->1"}]`}, "empty.json")
	runCmd(t, m, m.Init())
	if !strings.Contains(m.errMsg, playback.ErrEmptyRecord.Error()) {
		t.Fatalf("expected empty record error, got %q", m.errMsg)
	}
	m.Update(keyMsg(" "))
	if m.ctrl.State() == playback.Playing {
		t.Fatalf("playback must not start without a record")
	}
}

func TestViewerPickerOpensSelectedRecord(t *testing.T) {
	m := newTestModel(memSource{"4_seats_simulations/3-1.json": twoSteps}, "")
	if !m.picking {
		t.Fatalf("expected picker without initial record")
	}
	runCmd(t, m, m.Init())
	if len(m.entries) != 1 {
		t.Fatalf("expected one entry, got %+v", m.entries)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, m, cmd)
	if m.picking || m.recordName != "4_seats_simulations/3-1.json" {
		t.Fatalf("expected record opened, got picking=%v name=%q err=%q", m.picking, m.recordName, m.errMsg)
	}
}

func TestRenderGridSplitsWideGrids(t *testing.T) {
	grid := seat.Decode(map[string]string{"0,9": "T"}, seat.DefaultFallback)
	wide := renderGrid(grid, 0)
	narrow := renderGrid(grid, 14)
	if strings.Count(narrow, "\n\n") == 0 {
		t.Fatalf("expected banded grid:\n%s", narrow)
	}
	if strings.Count(wide, "\n\n") != 0 {
		t.Fatalf("unconstrained grid should be one band:\n%s", wide)
	}
	if !strings.Contains(renderGrid(seat.Grid{}, 80), "(no seats)") {
		t.Fatalf("expected placeholder for empty grid")
	}
}

func TestCellWidth(t *testing.T) {
	if cellWidth(5, 80) != 4 {
		t.Fatalf("expected wide cells")
	}
	if cellWidth(30, 80) != 2 {
		t.Fatalf("expected narrow cells")
	}
}

func TestColumnLabelsKeepGap(t *testing.T) {
	if got := columnLabel(12, 2); got != "2" {
		t.Fatalf("expected last digit in narrow cells, got %q", got)
	}
	if got := columnLabel(7, 2); got != "7" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := columnLabel(1234, 4); got != "234" {
		t.Fatalf("expected three trailing digits in wide cells, got %q", got)
	}
	grid := seat.Decode(map[string]string{"0,11": "T"}, seat.DefaultFallback)
	ruler := strings.SplitN(renderBand(grid, 9, 12, 2), "\n", 2)[0]
	if !strings.Contains(ruler, "9 0 1") {
		t.Fatalf("expected separated column labels, got %q", ruler)
	}
}
