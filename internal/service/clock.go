package service

import (
	"fmt"
	"strconv"
	"strings"
)

// parseClock parses a 24-hour HH:MM or HH:MM:SS string.
func parseClock(raw string) (int, int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return 0, 0, 0, fmt.Errorf("invalid second in %q", raw)
		}
	}
	return hour, minute, second, nil
}

// clockSeconds flattens a clock reading to seconds since midnight.
func clockSeconds(hour, minute, second int) int {
	return hour*3600 + minute*60 + second
}

// to12Hour converts a 24-hour clock string to H:MM AM/PM for display.
// Malformed input degrades to an empty string.
func to12Hour(raw string) string {
	hour, minute, _, err := parseClock(raw)
	if err != nil {
		return ""
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}
