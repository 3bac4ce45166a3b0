package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/seatplay/internal/model"
)

// FallbackScale is shown when a record carries no usable test scale.
var FallbackScale = model.Scale{Rows: 3, Cols: 3, Students: 9}

// ParseScale parses a "R*C->N" test scale.
func ParseScale(s string) (model.Scale, error) {
	grid, students, ok := strings.Cut(strings.TrimSpace(s), "->")
	if !ok {
		return model.Scale{}, fmt.Errorf("scale %q: missing \"->\"", s)
	}
	rowsPart, colsPart, ok := strings.Cut(grid, "*")
	if !ok {
		return model.Scale{}, fmt.Errorf("scale %q: missing \"*\"", s)
	}
	rows, err := strconv.Atoi(strings.TrimSpace(rowsPart))
	if err != nil || rows <= 0 {
		return model.Scale{}, fmt.Errorf("scale %q: bad rows", s)
	}
	cols, err := strconv.Atoi(strings.TrimSpace(colsPart))
	if err != nil || cols <= 0 {
		return model.Scale{}, fmt.Errorf("scale %q: bad cols", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(students))
	if err != nil || n < 0 {
		return model.Scale{}, fmt.Errorf("scale %q: bad student count", s)
	}
	return model.Scale{Rows: rows, Cols: cols, Students: n}, nil
}

// ScaleOf returns the parsed scale of rec's config, or FallbackScale.
func ScaleOf(rec model.Record) model.Scale {
	if rec.Config == nil {
		return FallbackScale
	}
	scale, err := ParseScale(rec.Config.TestScale)
	if err != nil {
		return FallbackScale
	}
	return scale
}
