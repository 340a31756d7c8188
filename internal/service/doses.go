package service

import (
	"fmt"
	"time"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// dosesPerDay maps each schedule to its daily dose count
var dosesPerDay = map[model.Frequency]int{
	model.FrequencyOnceDaily:       1,
	model.FrequencyTwiceDaily:      2,
	model.FrequencyThreeTimesDaily: 3,
	model.FrequencyEvery4Hours:     6,
	model.FrequencyEvery6Hours:     4,
	model.FrequencyEvery8Hours:     3,
	model.FrequencyEvery12Hours:    2,
	model.FrequencyAsNeeded:        1,
}

// Frequencies lists the accepted schedules in display order
var Frequencies = []model.Frequency{
	model.FrequencyOnceDaily,
	model.FrequencyTwiceDaily,
	model.FrequencyThreeTimesDaily,
	model.FrequencyEvery4Hours,
	model.FrequencyEvery6Hours,
	model.FrequencyEvery8Hours,
	model.FrequencyEvery12Hours,
	model.FrequencyAsNeeded,
}

// ValidFrequency reports whether f is one of the fixed schedules
func ValidFrequency(f model.Frequency) bool {
	_, ok := dosesPerDay[f]
	return ok
}

// DosesPerDay returns the daily dose count for f. Unknown schedules count as one dose a day.
func DosesPerDay(f model.Frequency) int {
	if n, ok := dosesPerDay[f]; ok {
		return n
	}
	return 1
}

// DaysInclusive counts calendar days from start to end, both included
func DaysInclusive(start, end model.Date) int {
	return start.DaysUntil(end) + 1
}

// ComputeTotalDoses returns the prescribed dose count of a course. It is 0 when
// either date is missing or the range is reversed.
func ComputeTotalDoses(f model.Frequency, start, end *model.Date) int {
	if start == nil || end == nil || start.IsZero() || end.IsZero() || end.Before(*start) {
		return 0
	}
	return DaysInclusive(*start, *end) * DosesPerDay(f)
}

// RemainingDoses is totalDoses minus doses taken, floored at 0
func RemainingDoses(m model.Medication, taken int) int {
	return max(0, m.TotalDoses-taken)
}

// IsCompleted reports whether every dose was taken and the course end date,
// if any, has been reached
func IsCompleted(m model.Medication, taken int, now time.Time) bool {
	if RemainingDoses(m, taken) > 0 {
		return false
	}
	if m.EndDate == nil || m.EndDate.IsZero() {
		return true
	}
	return !model.DateOf(now).Before(*m.EndDate)
}

// StatusText describes the dose-tracking state of a course
func StatusText(m model.Medication, taken int, now time.Time) string {
	remaining := RemainingDoses(m, taken)

	if remaining == 0 && m.EndDate != nil && !m.EndDate.IsZero() {
		today := model.DateOf(now)
		if today.Before(*m.EndDate) {
			days := today.DaysUntil(*m.EndDate)
			return fmt.Sprintf("All doses taken. Course ends in %d %s", days, plural(days, "day"))
		}
	}

	if remaining > 0 {
		return fmt.Sprintf("%d %s remaining", remaining, plural(remaining, "dose"))
	}

	return "Course completed"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
