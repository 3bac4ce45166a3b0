package playback

import (
	"regexp"
	"strconv"
)

var (
	takenRateFull    = regexp.MustCompile(`(\d+)\s+\(([\d.]+)%\)`)
	takenRatePercent = regexp.MustCompile(`\(([\d.]+)%\)`)
)

// TakenRate is the parsed form of a step's taken-rate text, e.g. " 4 (44.4%)".
type TakenRate struct {
	Count   int
	Percent float64
}

// ParseTakenRate extracts the seat count and parenthesized percentage. Missing
// or malformed parts are reported as zero.
func ParseTakenRate(s string) TakenRate {
	if s == "" {
		return TakenRate{}
	}
	if m := takenRateFull.FindStringSubmatch(s); m != nil {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			count = 0
		}
		return TakenRate{Count: count, Percent: parsePercent(m[2])}
	}
	if m := takenRatePercent.FindStringSubmatch(s); m != nil {
		return TakenRate{Percent: parsePercent(m[1])}
	}
	return TakenRate{}
}

func parsePercent(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
