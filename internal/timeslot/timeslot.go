// Package timeslot derives the discrete slot labels of a schedule's time
// range. Labels look like "09:00-10:00" and are the join key between
// registrations and slot statistics, so derivation must be deterministic.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultWidthMinutes is used when no slot width is configured.
const DefaultWidthMinutes = 60

// ParseHM converts an "HH:MM" string to minutes since midnight.
func ParseHM(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

func formatHM(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// ValidateRange checks that start and end parse and that start < end.
func ValidateRange(start, end string) error {
	s, err := ParseHM(start)
	if err != nil {
		return err
	}
	e, err := ParseHM(end)
	if err != nil {
		return err
	}
	if s >= e {
		return fmt.Errorf("start time %s must be before end time %s", start, end)
	}
	return nil
}

// Derive partitions [start, end) into labels at the given width in minutes.
// A trailing remainder shorter than the width still forms a final slot capped
// at end. An invalid or empty range yields no slots.
func Derive(start, end string, widthMinutes int) ([]string, error) {
	s, err := ParseHM(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseHM(end)
	if err != nil {
		return nil, err
	}
	if widthMinutes <= 0 {
		widthMinutes = DefaultWidthMinutes
	}
	var slots []string
	for t := s; t < e; t += widthMinutes {
		to := t + widthMinutes
		if to > e {
			to = e
		}
		slots = append(slots, formatHM(t)+"-"+formatHM(to))
	}
	return slots, nil
}

// Contains reports whether label is one of the derived slots.
func Contains(slots []string, label string) bool {
	for _, s := range slots {
		if s == label {
			return true
		}
	}
	return false
}
