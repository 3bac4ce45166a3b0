package model

import (
	"errors"
	"testing"
)

func TestValidateRangeRejectsInvertedBounds(t *testing.T) {
	req := RangeRunRequest{Rows: 3, Cols: 3, MinStudents: 10, MaxStudents: 5, StudentStep: 1, RepeatCount: 1}
	err := ValidateRange(req)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestValidateRangeRejectsZeroStep(t *testing.T) {
	req := RangeRunRequest{Rows: 3, Cols: 3, MinStudents: 1, MaxStudents: 5, StudentStep: 0, RepeatCount: 1}
	if err := ValidateRange(req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestValidateRunRejectsNonPositiveDimensions(t *testing.T) {
	if err := ValidateRun(RunRequest{Rows: 0, Cols: 3, TotalStudents: 5}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero rows, got %v", err)
	}
	if err := ValidateRun(RunRequest{Rows: 3, Cols: 3, TotalStudents: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero students, got %v", err)
	}
	if err := ValidateRun(RunRequest{Rows: 3, Cols: 3, TotalStudents: 9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPlannedRuns(t *testing.T) {
	req := RangeRunRequest{MinStudents: 5, MaxStudents: 15, StudentStep: 5, RepeatCount: 2}
	// 5, 10, 15 -> 3 student counts, twice each.
	if got := PlannedRuns(req); got != 6 {
		t.Fatalf("expected 6 runs, got %d", got)
	}
	req.StudentStep = 4
	// 5, 9, 13 -> ceil(11/4) = 3
	if got := PlannedRuns(req); got != 6 {
		t.Fatalf("expected 6 runs, got %d", got)
	}
}
