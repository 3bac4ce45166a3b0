package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/seatplay/internal/playback"
)

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{
		progress: 50,
		hasSnap:  true,
		snap: playback.Snapshot{
			Time: "7:30", StepNumber: 3, TotalSteps: 6,
			OccupiedCount: 4, OccupancyPercent: 44.4, ReservedCount: 2,
		},
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Progress 50%", "Step 3/6", "Time 7:30", "Occupied 4 (44.4%)", "Reserved 2"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterWithoutSnapshot(t *testing.T) {
	m := &Model{}
	out := m.renderFooter()
	if !strings.Contains(out, "Progress 0%") || strings.Contains(out, "Step") {
		t.Fatalf("unexpected footer: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
