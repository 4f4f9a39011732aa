package schedule

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestValidateWindow(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		slot  int
		want  error
	}{
		{"valid", "09:00", "13:00", 15, nil},
		{"default slot", "09:00", "09:40", 0, nil},
		{"bad start", "9am", "13:00", 15, ErrInvalidTime},
		{"bad end", "09:00", "25:00", 15, ErrInvalidTime},
		{"end equals start", "09:00", "09:00", 15, ErrEmptyWindow},
		{"end before start", "18:00", "09:00", 15, ErrEmptyWindow},
		{"slot does not divide", "09:00", "10:00", 25, ErrSlotDuration},
		{"slot longer than window", "09:00", "09:30", 45, ErrSlotDuration},
		{"negative slot", "09:00", "10:00", -10, ErrSlotDuration},
		{"slot over a day", "00:00", "23:59", 24*60 + 1, ErrSlotDuration},
		{"overflowing slot", "09:00", "10:00", 1 << 40, ErrSlotDuration},
		{"overflow wraps to a divisor", "00:00", "01:00", math.MaxInt64/int(time.Minute) + 1, ErrSlotDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.start, tt.end, tt.slot)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ValidateWindow(%s, %s, %d) = %v, want %v", tt.start, tt.end, tt.slot, err, tt.want)
			}
		})
	}
}

func TestSlots(t *testing.T) {
	got, err := Slots("09:00", "10:00", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"09:00", "09:20", "09:40"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Slots = %v, want %v", got, want)
	}
	if _, err := Slots("09:00", "10:00", 0); !errors.Is(err, ErrSlotDuration) {
		t.Fatalf("expected ErrSlotDuration, got %v", err)
	}
}
