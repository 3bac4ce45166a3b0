// Package playback replays recorded seat-state steps on a timer.
package playback

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/seat"
)

// State is the controller's playback state.
type State int

const (
	Idle State = iota
	Loaded
	Playing
	Paused
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrEmptyRecord is returned by Load for a record without playable steps.
	ErrEmptyRecord = errors.New("record has no playable steps")
	// ErrNoRecord is returned by Start when nothing has been loaded.
	ErrNoRecord = errors.New("no record loaded")
	// ErrAlreadyPlaying is returned by Start while a timer is armed.
	ErrAlreadyPlaying = errors.New("playback already running")
	// ErrNotPlaying is returned by Pause outside of playback.
	ErrNotPlaying = errors.New("playback not running")
	// ErrBusy is returned by Load during playback.
	ErrBusy = errors.New("cannot load while playing")
)

// Timer identifies one armed periodic schedule. Ticks carrying the ID of a
// cancelled timer are ignored.
type Timer struct {
	ID       uint64
	Interval time.Duration
}

// Controller owns the loaded record, the read cursor and the active timer.
// It is not safe for concurrent use; all calls are expected from one event loop.
type Controller struct {
	log      logrus.FieldLogger
	sink     Sink
	fallback seat.Extent

	state  State
	record *model.Record
	cursor int
	timer  *Timer
	nextID uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithFallback sets the grid extent used for steps without seat state.
func WithFallback(extent seat.Extent) Option {
	return func(c *Controller) {
		if extent.Rows > 0 && extent.Cols > 0 {
			c.fallback = extent
		}
	}
}

// New returns an idle controller publishing to sink. A nil sink drops events.
func New(sink Sink, opts ...Option) *Controller {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Controller{
		log:      discard,
		sink:     sink,
		fallback: seat.DefaultFallback,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current playback state.
func (c *Controller) State() State {
	return c.state
}

// Cursor returns the index of the next step to render.
func (c *Controller) Cursor() int {
	return c.cursor
}

// ActiveTimer returns the armed timer, if any.
func (c *Controller) ActiveTimer() (Timer, bool) {
	if c.timer == nil {
		return Timer{}, false
	}
	return *c.timer, true
}

// Record returns the loaded record.
func (c *Controller) Record() (model.Record, bool) {
	if c.record == nil {
		return model.Record{}, false
	}
	return *c.record, true
}

// Load arms the controller with rec and rewinds to the first step.
func (c *Controller) Load(rec model.Record) error {
	if c.state == Playing {
		return ErrBusy
	}
	if len(rec.Steps) == 0 {
		return ErrEmptyRecord
	}
	c.record = &rec
	c.cursor = 0
	c.timer = nil
	c.state = Loaded
	c.log.WithFields(logrus.Fields{"record": rec.Name, "steps": len(rec.Steps)}).Debug("record loaded")
	return nil
}

// Start arms a periodic timer. From Completed the cursor rewinds; from Paused
// playback resumes where it stopped. The caller delivers ticks for the
// returned timer to Tick.
func (c *Controller) Start(interval time.Duration) (Timer, error) {
	if interval <= 0 {
		return Timer{}, fmt.Errorf("%w: interval must be positive", model.ErrInvalidInput)
	}
	switch c.state {
	case Playing:
		return Timer{}, ErrAlreadyPlaying
	case Completed:
		c.cursor = 0
	}
	if c.record == nil {
		return Timer{}, ErrNoRecord
	}
	c.nextID++
	c.timer = &Timer{ID: c.nextID, Interval: interval}
	c.state = Playing
	c.log.WithFields(logrus.Fields{"timer": c.timer.ID, "cursor": c.cursor, "interval": interval}).Debug("playback started")
	return *c.timer, nil
}

// Tick advances playback for the timer with the given ID. It reports whether
// the timer is still armed and should fire again.
func (c *Controller) Tick(id uint64) bool {
	if c.state != Playing || c.timer == nil || c.timer.ID != id {
		return false
	}
	total := len(c.record.Steps)
	if c.cursor >= total {
		c.complete()
		return false
	}
	c.publish(c.snapshotAt(c.cursor))
	c.cursor++
	if c.cursor >= total {
		c.complete()
		return false
	}
	return true
}

// Preview returns the snapshot for the step at the cursor without advancing.
func (c *Controller) Preview() (Snapshot, bool) {
	if c.record == nil {
		return Snapshot{}, false
	}
	idx := c.cursor
	if idx >= len(c.record.Steps) {
		idx = len(c.record.Steps) - 1
	}
	return c.snapshotAt(idx), true
}

// Pause cancels the timer and keeps the cursor.
func (c *Controller) Pause() error {
	if c.state != Playing {
		return ErrNotPlaying
	}
	c.timer = nil
	c.state = Paused
	c.log.WithField("cursor", c.cursor).Debug("playback paused")
	return nil
}

// Stop cancels any timer, rewinds the cursor and returns to Idle. The loaded
// record is kept so playback can start again. Stopping an idle controller
// publishes nothing.
func (c *Controller) Stop() {
	if c.state == Idle && c.timer == nil && c.cursor == 0 {
		return
	}
	c.timer = nil
	c.cursor = 0
	c.state = Idle
	total := 0
	if c.record != nil {
		total = len(c.record.Steps)
	}
	c.publish(Reset{TotalSteps: total, ProgressPercent: 0, Status: "stopped"})
	c.log.Debug("playback stopped")
}

func (c *Controller) complete() {
	c.timer = nil
	c.state = Completed
	total := len(c.record.Steps)
	last := ""
	if total > 0 {
		last = c.record.Steps[total-1].Time
	}
	c.publish(Finished{TotalSteps: total, LastTime: last, ProgressPercent: 100})
	c.log.WithField("steps", total).Debug("playback completed")
}

func (c *Controller) snapshotAt(idx int) Snapshot {
	step := c.record.Steps[idx]
	total := len(c.record.Steps)
	grid := seat.Decode(step.SeatState, c.fallback)
	rate := ParseTakenRate(step.TakenRate)
	return Snapshot{
		Grid:             grid,
		Time:             step.Time,
		OccupiedCount:    rate.Count,
		OccupancyPercent: rate.Percent,
		ReservedCount:    step.ReservedSeats,
		ProgressPercent:  float64(idx) / float64(total) * 100,
		StepNumber:       idx + 1,
		TotalSteps:       total,
	}
}

func (c *Controller) publish(e Event) {
	if c.sink == nil {
		return
	}
	c.sink.Publish(e)
}
