package service

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

func TestDosesPerDay(t *testing.T) {
	tests := []struct {
		frequency model.Frequency
		want      int
	}{
		{model.FrequencyOnceDaily, 1},
		{model.FrequencyTwiceDaily, 2},
		{model.FrequencyThreeTimesDaily, 3},
		{model.FrequencyEvery4Hours, 6},
		{model.FrequencyEvery6Hours, 4},
		{model.FrequencyEvery8Hours, 3},
		{model.FrequencyEvery12Hours, 2},
		{model.FrequencyAsNeeded, 1},
		{"Weekly", 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			assert.Equal(t, tt.want, DosesPerDay(tt.frequency))
		})
	}
}

func TestComputeTotalDoses(t *testing.T) {
	tests := []struct {
		name      string
		frequency model.Frequency
		start     *model.Date
		end       *model.Date
		want      int
	}{
		{
			name:      "twice daily over five days",
			frequency: model.FrequencyTwiceDaily,
			start:     datePtr(2024, time.January, 1),
			end:       datePtr(2024, time.January, 5),
			want:      10,
		},
		{
			name:      "once daily over three days",
			frequency: model.FrequencyOnceDaily,
			start:     datePtr(2024, time.March, 1),
			end:       datePtr(2024, time.March, 3),
			want:      3,
		},
		{
			name:      "single day every 4 hours",
			frequency: model.FrequencyEvery4Hours,
			start:     datePtr(2024, time.June, 10),
			end:       datePtr(2024, time.June, 10),
			want:      6,
		},
		{
			name:      "across a leap day",
			frequency: model.FrequencyOnceDaily,
			start:     datePtr(2024, time.February, 28),
			end:       datePtr(2024, time.March, 1),
			want:      3,
		},
		{
			name:      "missing end date",
			frequency: model.FrequencyOnceDaily,
			start:     datePtr(2024, time.January, 1),
			want:      0,
		},
		{
			name:      "reversed range",
			frequency: model.FrequencyTwiceDaily,
			start:     datePtr(2024, time.January, 5),
			end:       datePtr(2024, time.January, 1),
			want:      0,
		},
		{
			name:      "missing start date",
			frequency: model.FrequencyOnceDaily,
			end:       datePtr(2024, time.January, 1),
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTotalDoses(tt.frequency, tt.start, tt.end))
		})
	}
}

func TestStatusText(t *testing.T) {
	now := time.Date(2024, time.March, 2, 15, 0, 0, 0, time.UTC)
	med := model.Medication{ID: "m1", TotalDoses: 3, EndDate: datePtr(2024, time.March, 3)}
	openEnded := model.Medication{ID: "m2", TotalDoses: 2}

	tests := []struct {
		name  string
		med   model.Medication
		taken int
		now   time.Time
		want  string
	}{
		{name: "several remaining", med: med, taken: 0, now: now, want: "3 doses remaining"},
		{name: "one remaining", med: med, taken: 2, now: now, want: "1 dose remaining"},
		{name: "all taken before end", med: med, taken: 3, now: now, want: "All doses taken. Course ends in 1 day"},
		{name: "all taken well before end", med: med, taken: 3, now: now.AddDate(0, 0, -3), want: "All doses taken. Course ends in 4 days"},
		{name: "all taken on end date", med: med, taken: 3, now: now.AddDate(0, 0, 1), want: "Course completed"},
		{name: "over-taken", med: med, taken: 5, now: now.AddDate(0, 0, 2), want: "Course completed"},
		{name: "no end date", med: openEnded, taken: 2, now: now, want: "Course completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusText(tt.med, tt.taken, tt.now))
		})
	}
}

func TestIsCompleted(t *testing.T) {
	med := model.Medication{ID: "m1", TotalDoses: 3, EndDate: datePtr(2024, time.March, 3)}

	assert.False(t, IsCompleted(med, 2, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)), "doses remain")
	assert.False(t, IsCompleted(med, 3, time.Date(2024, time.March, 2, 23, 59, 0, 0, time.UTC)), "end date not reached")
	assert.True(t, IsCompleted(med, 3, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsCompleted(model.Medication{TotalDoses: 1}, 1, time.Now()), "no end date")
}

// Feature: healthmate, Property: total doses equal inclusive days times doses per day
func TestProperty_ComputeTotalDoses(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("totalDoses = daysInclusive * dosesPerDay", prop.ForAll(
		func(freqIndex int, offset int, length int) bool {
			f := Frequencies[freqIndex]
			start := model.NewDate(2020, time.January, 1).AddDate(0, 0, offset)
			end := start.AddDate(0, 0, length)
			s, e := model.DateOf(start), model.DateOf(end)

			return ComputeTotalDoses(f, &s, &e) == (length+1)*DosesPerDay(f)
		},
		gen.IntRange(0, len(Frequencies)-1),
		gen.IntRange(0, 3650),
		gen.IntRange(0, 365),
	))

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	properties.TestingRun(t, params)
}

// Feature: healthmate, Property: remaining doses are total minus taken, clamped at zero
func TestProperty_RemainingDoses(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("remaining = max(0, total - taken)", prop.ForAll(
		func(total int, taken int) bool {
			m := model.Medication{TotalDoses: total}
			want := total - taken
			if want < 0 {
				want = 0
			}
			return RemainingDoses(m, taken) == want
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 2000),
	))

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	properties.TestingRun(t, params)
}
