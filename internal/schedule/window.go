package schedule

import (
	"errors"
	"fmt"
	"time"
)

const clockLayout = "15:04"

var (
	ErrInvalidTime  = errors.New("schedule: time must be HH:MM")
	ErrEmptyWindow  = errors.New("schedule: end time must be after start time")
	ErrSlotDuration = errors.New("schedule: slot duration must divide the window")
)

// ValidateWindow checks an availability window. slotMinutes of zero means the
// backend default and is not checked.
func ValidateWindow(start, end string, slotMinutes int) error {
	from, err := time.Parse(clockLayout, start)
	if err != nil {
		return fmt.Errorf("%w: start %q", ErrInvalidTime, start)
	}
	to, err := time.Parse(clockLayout, end)
	if err != nil {
		return fmt.Errorf("%w: end %q", ErrInvalidTime, end)
	}
	window := to.Sub(from)
	if window <= 0 {
		return ErrEmptyWindow
	}
	if slotMinutes == 0 {
		return nil
	}
	if slotMinutes < 0 || slotMinutes > 24*60 {
		return fmt.Errorf("%w: %d minutes in %s", ErrSlotDuration, slotMinutes, window)
	}
	slot := time.Duration(slotMinutes) * time.Minute
	if slot > window || window%slot != 0 {
		return fmt.Errorf("%w: %d minutes in %s", ErrSlotDuration, slotMinutes, window)
	}
	return nil
}

// Slots lists the start times of each slot in a valid window.
func Slots(start, end string, slotMinutes int) ([]string, error) {
	if slotMinutes <= 0 {
		return nil, ErrSlotDuration
	}
	if err := ValidateWindow(start, end, slotMinutes); err != nil {
		return nil, err
	}
	from, _ := time.Parse(clockLayout, start)
	to, _ := time.Parse(clockLayout, end)
	step := time.Duration(slotMinutes) * time.Minute
	var out []string
	for t := from; t.Before(to); t = t.Add(step) {
		out = append(out, t.Format(clockLayout))
	}
	return out, nil
}
