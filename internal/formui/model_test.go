package formui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/ratio"
)

type fakeBackend struct {
	run    model.RunRequest
	rng    model.RangeRunRequest
	resp   model.RunResponse
	err    error
	called int
}

func (b *fakeBackend) SubmitRun(_ context.Context, req model.RunRequest) (model.RunResponse, error) {
	b.called++
	b.run = req
	return b.resp, b.err
}

func (b *fakeBackend) SubmitRange(_ context.Context, req model.RangeRunRequest) (model.RunResponse, error) {
	b.called++
	b.rng = req
	return b.resp, b.err
}

type memHistory struct {
	mu   sync.Mutex
	runs []model.RunHistory
}

func (h *memHistory) InsertRun(_ context.Context, run model.RunHistory) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, run)
	return int64(len(h.runs)), nil
}

func newTestModel(b *fakeBackend, h *memHistory) *Model {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewModel(Options{
		Backend: b,
		History: h,
		Single:  ratio.Triple{Humanities: 34, Science: 33, Engineering: 33},
		Range:   ratio.Triple{Humanities: 40, Science: 40, Engineering: 20},
		Log:     log,
	})
}

func press(m *Model, t tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: t})
	return cmd
}

func focusRatio(m *Model, field ratio.Field) {
	f := m.active()
	f.setFocus(len(f.inputs) + int(field))
}

func TestSubmitSingleRunStoresHistory(t *testing.T) {
	b := &fakeBackend{resp: model.RunResponse{Status: "success", Message: "Simulation completed successfully!"}}
	h := &memHistory{}
	m := newTestModel(b, h)

	cmd := press(m, tea.KeyEnter)
	if cmd == nil || !m.busy {
		t.Fatalf("expected submission command, err=%q", m.errMsg)
	}
	m.Update(cmd())
	if m.busy || m.errMsg != "" || !strings.Contains(m.result, "completed") {
		t.Fatalf("unexpected outcome busy=%v err=%q result=%q", m.busy, m.errMsg, m.result)
	}
	if b.run.Rows != 3 || b.run.TotalStudents != 9 || b.run.HumanitiesRatio != 34 {
		t.Fatalf("unexpected request: %+v", b.run)
	}
	if len(h.runs) != 1 || h.runs[0].Kind != model.RunSingle || h.runs[0].Status != "success" {
		t.Fatalf("unexpected history: %+v", h.runs)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b, &memHistory{})
	m.forms[tabSingle].inputs[0].SetValue("0")
	if cmd := press(m, tea.KeyEnter); cmd != nil {
		t.Fatalf("expected no submission for invalid rows")
	}
	if b.called != 0 || !strings.Contains(m.errMsg, "rows and columns must be positive") {
		t.Fatalf("expected validation error, got %q", m.errMsg)
	}
}

func TestBackendErrorIsReportedAndRecorded(t *testing.T) {
	b := &fakeBackend{err: errors.New("connection refused")}
	h := &memHistory{}
	m := newTestModel(b, h)
	press(m, tea.KeyCtrlRight)
	cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatalf("expected range submission, err=%q", m.errMsg)
	}
	m.Update(cmd())
	if !strings.Contains(m.errMsg, "connection refused") {
		t.Fatalf("expected error message, got %q", m.errMsg)
	}
	if len(h.runs) != 1 || h.runs[0].Kind != model.RunRange || h.runs[0].Status != "error" {
		t.Fatalf("unexpected history: %+v", h.runs)
	}
	if b.rng.MinStudents != 1 || b.rng.MaxStudents != 9 || b.rng.HumanitiesRatio != 40 {
		t.Fatalf("unexpected range request: %+v", b.rng)
	}
}

func TestRatioGroupsAreIndependent(t *testing.T) {
	m := newTestModel(&fakeBackend{}, &memHistory{})
	focusRatio(m, ratio.Humanities)
	for i := 0; i < 3; i++ {
		press(m, tea.KeyPgUp)
	}
	single := m.forms[tabSingle].ratios.Triple()
	if single.Humanities != 64 || single.Sum() != 100 {
		t.Fatalf("unexpected single ratios: %+v", single)
	}
	if got := m.forms[tabRange].ratios.Triple(); got != (ratio.Triple{Humanities: 40, Science: 40, Engineering: 20}) {
		t.Fatalf("range ratios changed: %+v", got)
	}

	press(m, tea.KeyCtrlRight)
	focusRatio(m, ratio.Humanities)
	press(m, tea.KeyEnd)
	if got := m.forms[tabRange].ratios.Triple(); got != (ratio.Triple{Humanities: 100}) {
		t.Fatalf("unexpected range ratios: %+v", got)
	}
	if m.forms[tabSingle].ratios.Triple() != single {
		t.Fatalf("single ratios changed by range edits")
	}
}

func TestMultiprocessingToggle(t *testing.T) {
	m := newTestModel(&fakeBackend{}, &memHistory{})
	f := m.active()
	f.setFocus(f.positions() - 1)
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !f.multiprocessing {
		t.Fatalf("expected multiprocessing enabled")
	}
	req, err := f.runRequest()
	if err != nil || !req.UseMultiprocessing {
		t.Fatalf("expected flag in request: %+v %v", req, err)
	}
}

func TestRangeViewShowsPlannedRuns(t *testing.T) {
	m := newTestModel(&fakeBackend{}, &memHistory{})
	press(m, tea.KeyCtrlRight)
	m.forms[tabRange].inputs[4].SetValue("2")
	m.forms[tabRange].inputs[5].SetValue("3")
	if !strings.Contains(m.View(), "Planned runs: 15") {
		t.Fatalf("expected planned runs in view:\n%s", m.View())
	}
}
