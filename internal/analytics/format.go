package analytics

import (
	"fmt"
	"math"
	"strconv"
)

// RoundTenth rounds half away from zero to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormatHours renders hours with one decimal, e.g. 1.25 -> "1.3".
func FormatHours(h float64) string {
	return strconv.FormatFloat(RoundTenth(h), 'f', 1, 64)
}

// FormatDuration renders minutes as "1h 5m" or "45m".
func FormatDuration(minutes int64) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

func FormatPercent(p float64) string {
	return strconv.FormatFloat(math.Round(p), 'f', 0, 64) + "%"
}
