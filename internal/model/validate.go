package model

import "fmt"

// ValidateRun rejects single-run requests the backend cannot run.
func ValidateRun(req RunRequest) error {
	if req.Rows <= 0 || req.Cols <= 0 {
		return fmt.Errorf("%w: rows and columns must be positive numbers", ErrInvalidInput)
	}
	if req.TotalStudents <= 0 {
		return fmt.Errorf("%w: total students must be a positive number", ErrInvalidInput)
	}
	if req.CleaningTime < 0 {
		return fmt.Errorf("%w: cleaning time must be >= 0", ErrInvalidInput)
	}
	return nil
}

// ValidateRange rejects range-run requests the backend cannot run.
func ValidateRange(req RangeRunRequest) error {
	if req.Rows <= 0 || req.Cols <= 0 {
		return fmt.Errorf("%w: rows and columns must be positive numbers", ErrInvalidInput)
	}
	if req.MinStudents <= 0 || req.MaxStudents <= 0 {
		return fmt.Errorf("%w: min and max students must be positive numbers", ErrInvalidInput)
	}
	if req.MinStudents > req.MaxStudents {
		return fmt.Errorf("%w: minimum students cannot be greater than maximum students", ErrInvalidInput)
	}
	if req.StudentStep <= 0 {
		return fmt.Errorf("%w: student step must be a positive number", ErrInvalidInput)
	}
	if req.RepeatCount <= 0 {
		return fmt.Errorf("%w: repeat count must be a positive number", ErrInvalidInput)
	}
	if req.CleaningTime < 0 {
		return fmt.Errorf("%w: cleaning time must be >= 0", ErrInvalidInput)
	}
	return nil
}

// PlannedRuns returns how many runs a range request expands to.
func PlannedRuns(req RangeRunRequest) int {
	if req.StudentStep <= 0 || req.MaxStudents < req.MinStudents {
		return 0
	}
	span := req.MaxStudents - req.MinStudents + 1
	steps := (span + req.StudentStep - 1) / req.StudentStep
	return steps * req.RepeatCount
}
