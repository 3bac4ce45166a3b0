package playback

import "github.com/verte-zerg/seatplay/internal/seat"

// Event is published by the controller to the presentation layer.
type Event interface {
	event()
}

// Snapshot is the render update for one step.
type Snapshot struct {
	Grid             seat.Grid
	Time             string
	OccupiedCount    int
	OccupancyPercent float64
	ReservedCount    int
	ProgressPercent  float64
	StepNumber       int
	TotalSteps       int
}

// Finished is published once the last step has been rendered.
type Finished struct {
	TotalSteps      int
	LastTime        string
	ProgressPercent float64
}

// Reset is published by Stop.
type Reset struct {
	TotalSteps      int
	ProgressPercent float64
	Status          string
}

func (Snapshot) event() {}
func (Finished) event() {}
func (Reset) event() {}

// Sink receives controller events.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Publish implements Sink.
func (f SinkFunc) Publish(e Event) {
	f(e)
}
