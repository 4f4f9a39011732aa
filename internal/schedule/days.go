// Package schedule holds the weekday and time-window helpers behind the
// provider availability drawer.
package schedule

import (
	"sort"
	"strings"
	"time"
)

const (
	rangeSep = " - "
	listSep  = " , "
)

// week is ordered Monday first; a day's position is its canonical index.
var week = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

var dayIndex = func() map[string]int {
	m := make(map[string]int, 14)
	for i, d := range week {
		name := strings.ToLower(d.String())
		m[name] = i
		m[name[:3]] = i
	}
	return m
}()

// DayIndex returns the canonical Monday=0..Sunday=6 index of a weekday name.
// Matching is case-insensitive and accepts three-letter abbreviations.
func DayIndex(name string) (int, bool) {
	i, ok := dayIndex[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// DayName returns the canonical name for an index, or "" when out of range.
func DayName(i int) string {
	if i < 0 || i >= len(week) {
		return ""
	}
	return week[i].String()
}

// CompressDays renders a weekday selection the way the availability endpoint
// expects it. The result always has exactly one element:
//
//	[Monday Tuesday Wednesday] -> ["Monday - Wednesday"]
//	[Monday Wednesday]         -> ["Monday , Wednesday"]
//	[Monday]                   -> ["Monday"]
//	[]                         -> [""]
//
// Unknown names are dropped and duplicates collapse.
func CompressDays(days []string) []string {
	idx := indices(days)
	switch {
	case len(idx) == 0:
		return []string{""}
	case len(idx) > 1 && contiguous(idx):
		return []string{DayName(idx[0]) + rangeSep + DayName(idx[len(idx)-1])}
	}
	names := make([]string, len(idx))
	for i, d := range idx {
		names[i] = DayName(d)
	}
	return []string{strings.Join(names, listSep)}
}

// ExpandDays turns stored day strings back into individual day names in
// week order, for pre-selecting the edit form. It accepts the output of
// CompressDays as well as plain lists of names; a range whose end precedes
// its start wraps around the week.
func ExpandDays(values []string) []string {
	seen := make(map[int]bool, 7)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if from, to, ok := strings.Cut(part, "-"); ok {
				start, okStart := DayIndex(from)
				end, okEnd := DayIndex(to)
				if !okStart || !okEnd {
					continue
				}
				for i := start; ; i = (i + 1) % 7 {
					seen[i] = true
					if i == end {
						break
					}
				}
				continue
			}
			if i, ok := DayIndex(part); ok {
				seen[i] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for i := range week {
		if seen[i] {
			out = append(out, DayName(i))
		}
	}
	return out
}

func indices(days []string) []int {
	seen := make(map[int]bool, len(days))
	idx := make([]int, 0, len(days))
	for _, d := range days {
		i, ok := DayIndex(d)
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// contiguous expects sorted, de-duplicated indices.
func contiguous(idx []int) bool {
	for i := 1; i < len(idx); i++ {
		if idx[i] != idx[i-1]+1 {
			return false
		}
	}
	return true
}
