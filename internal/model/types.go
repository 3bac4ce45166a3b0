// Package model defines shared data structures.
package model

import (
	"errors"
	"time"
)

// ErrInvalidInput marks a form or flag value rejected before any core logic runs.
var ErrInvalidInput = errors.New("invalid input")

// TimeStep is one recorded instant of the simulation.
type TimeStep struct {
	Time          string
	SeatState     map[string]string
	TakenRate     string
	ReservedSeats int
}

// ConfigRecord is the optional leading element of a record describing the run.
type ConfigRecord struct {
	TestName  string
	TestScale string
	SeatCount int
}

// Record is an ordered, immutable sequence of playable steps.
type Record struct {
	Name   string
	Config *ConfigRecord
	Steps  []TimeStep
}

// Scale is the parsed form of a "R*C->N" test scale.
type Scale struct {
	Rows     int
	Cols     int
	Students int
}

// Seats returns the total seat count of the scale.
func (s Scale) Seats() int {
	return s.Rows * s.Cols
}

// RunRequest submits a single simulation run.
type RunRequest struct {
	Rows               int  `json:"rows"`
	Cols               int  `json:"cols"`
	TotalStudents      int  `json:"totalStudents"`
	HumanitiesRatio    int  `json:"humanitiesRatio"`
	ScienceRatio       int  `json:"scienceRatio"`
	EngineeringRatio   int  `json:"engineeringRatio"`
	CleaningTime       int  `json:"cleaningTime"`
	UseMultiprocessing bool `json:"useMultiprocessing"`
}

// RangeRunRequest submits a sweep of runs over a student-count range.
type RangeRunRequest struct {
	Rows               int  `json:"rows"`
	Cols               int  `json:"cols"`
	MinStudents        int  `json:"minStudents"`
	MaxStudents        int  `json:"maxStudents"`
	StudentStep        int  `json:"studentStep"`
	RepeatCount        int  `json:"repeatCount"`
	HumanitiesRatio    int  `json:"humanitiesRatio"`
	ScienceRatio       int  `json:"scienceRatio"`
	EngineeringRatio   int  `json:"engineeringRatio"`
	CleaningTime       int  `json:"cleaningTime"`
	UseMultiprocessing bool `json:"useMultiprocessing"`
}

// RangeResult is one completed run of a range submission.
type RangeResult struct {
	Students int `json:"students"`
}

// RunResponse is the backend reply to a run submission.
type RunResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Results []RangeResult `json:"results,omitempty"`
}

// OK reports whether the backend accepted the run.
func (r RunResponse) OK() bool {
	return r.Status == "success"
}

// SeatFolder is a folder of records grouped by seat count.
type SeatFolder struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	SeatCount int    `json:"seat_count"`
}

// StudentFile is a record file inside a seat folder.
type StudentFile struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	StudentCount int    `json:"student_count"`
}

// RecordEntry is a flat listing entry across all seat folders.
type RecordEntry struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	SeatCount string `json:"seat_count"`
}

// PlotEntry is a generated figure known to the backend.
type PlotEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// PlotRequest asks the backend to generate a figure.
type PlotRequest struct {
	SeatCount    int    `json:"seat_count"`
	PlotType     string `json:"plot_type"`
	StudentCount int    `json:"student_count,omitempty"`
	MinStudents  int    `json:"min_students,omitempty"`
	MaxStudents  int    `json:"max_students,omitempty"`
}

// BatchPlotRequest asks the backend to generate figures for a student range.
type BatchPlotRequest struct {
	SeatCount            int  `json:"seat_count"`
	MinStudents          int  `json:"min_students"`
	MaxStudents          int  `json:"max_students"`
	GenerateAnalysis     bool `json:"generate_analysis"`
	GenerateStudentPlots bool `json:"generate_student_plots"`
}

// CheckPlotsRequest asks which figures already exist.
type CheckPlotsRequest struct {
	SeatCount         int  `json:"seat_count"`
	MinStudents       *int `json:"min_students,omitempty"`
	MaxStudents       *int `json:"max_students,omitempty"`
	CheckAnalysis     bool `json:"check_analysis"`
	CheckStudentPlots bool `json:"check_student_plots"`
}

// PlotResult is one entry of a plot generation or check reply.
type PlotResult struct {
	Type         string `json:"type"`
	Path         string `json:"path,omitempty"`
	StudentCount int    `json:"student_count,omitempty"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// PlotResponse is the backend reply to plot requests.
type PlotResponse struct {
	Status       string       `json:"status"`
	Message      string       `json:"message"`
	ExpectedPath string       `json:"expected_path,omitempty"`
	Results      []PlotResult `json:"results,omitempty"`
}

// ExistingPlots groups the figures found by a check.
type ExistingPlots struct {
	AnalysisPlots []PlotEntry `json:"analysis_plots"`
	StudentPlots  []PlotEntry `json:"student_plots"`
}

// PlotSummary counts the figures found by a check.
type PlotSummary struct {
	AnalysisCount int `json:"analysis_count"`
	StudentCount  int `json:"student_count"`
	TotalCount    int `json:"total_count"`
}

// CheckPlotsResponse is the backend reply to a plot check.
type CheckPlotsResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Results ExistingPlots `json:"results"`
	Summary PlotSummary   `json:"summary"`
}

// RunKind distinguishes history entries.
type RunKind string

const (
	RunSingle RunKind = "single"
	RunRange  RunKind = "range"
)

// RunHistory is a stored run submission and its outcome.
type RunHistory struct {
	ID          int64
	Kind        RunKind
	SubmittedAt time.Time
	Rows        int
	Cols        int
	MinStudents int
	MaxStudents int
	StudentStep int
	RepeatCount int
	Humanities  int
	Science     int
	Engineering int
	Cleaning    int
	Status      string
	Message     string
	Results     []RangeResult
}
