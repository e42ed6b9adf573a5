package availability_test

import (
	"iter"
	"testing"
	"time"

	"bloomify-scheduler/models"
	"bloomify-scheduler/services/availability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func mondayTemplate() models.WeeklyTemplate {
	var t models.WeeklyTemplate
	t.Days[time.Monday] = models.DayAvailability{
		Available:   true,
		TimeWindows: []models.TimeWindow{{Start: 9 * 60, End: 11 * 60, MaxBookings: 2}},
	}
	return t
}

func hourlySettings() models.BookingSettings {
	return models.BookingSettings{
		AdvanceBookingDays:  30,
		MinimumNoticeHours:  0,
		SlotDurationMinutes: 60,
		Timezone:            "UTC",
	}
}

func wholeDay(day time.Time) (time.Time, time.Time) {
	return day, day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func collect(seq iter.Seq[models.Slot]) []models.Slot {
	var out []models.Slot
	for s := range seq {
		out = append(out, s)
	}
	return out
}

func mondayQuery() availability.SlotQuery {
	from, to := wholeDay(monday)
	return availability.SlotQuery{
		Template:   mondayTemplate(),
		Settings:   hourlySettings(),
		RangeStart: from,
		RangeEnd:   to,
		Now:        time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestGenerateSlotsMondayWindow(t *testing.T) {
	seq, err := availability.GenerateSlots(mondayQuery())
	require.NoError(t, err)

	slots := collect(seq)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00-10:00", slots[0].Label())
	assert.Equal(t, "10:00-11:00", slots[1].Label())
	for _, s := range slots {
		assert.Equal(t, "2025-03-03", s.Date)
		assert.Equal(t, 2, s.RemainingCapacity)
	}
	assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), slots[0].StartsAt)
	assert.Equal(t, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), slots[0].EndsAt)
}

func TestGenerateSlotsOverridePrecedence(t *testing.T) {
	t.Run("closed override hides an available weekday", func(t *testing.T) {
		q := mondayQuery()
		q.Overrides = models.OverrideSet{{Date: "2025-03-03", Available: false, Reason: "holiday"}}
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		assert.Empty(t, collect(seq))
	})

	t.Run("open override replaces template windows", func(t *testing.T) {
		q := mondayQuery()
		q.Overrides = models.OverrideSet{{
			Date:        "2025-03-03",
			Available:   true,
			TimeWindows: []models.TimeWindow{{Start: 14 * 60, End: 15 * 60, MaxBookings: 1}},
		}}
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.Len(t, slots, 1)
		assert.Equal(t, "14:00-15:00", slots[0].Label())
		assert.Equal(t, 1, slots[0].RemainingCapacity)
	})

	t.Run("open override on a closed weekday", func(t *testing.T) {
		q := mondayQuery()
		sunday := monday.AddDate(0, 0, -1)
		q.RangeStart, q.RangeEnd = wholeDay(sunday)
		q.Overrides = models.OverrideSet{{
			Date:        "2025-03-02",
			Available:   true,
			TimeWindows: []models.TimeWindow{{Start: 10 * 60, End: 12 * 60, MaxBookings: 3}},
		}}
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.Len(t, slots, 2)
		assert.Equal(t, "2025-03-02", slots[0].Date)
		assert.Equal(t, 3, slots[1].RemainingCapacity)
	})
}

func TestGenerateSlotsCapacity(t *testing.T) {
	nineAM := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	booking := func(id string) models.BookingInterval {
		return models.BookingInterval{BookingID: id, Start: nineAM, End: nineAM.Add(time.Hour)}
	}

	t.Run("one booking leaves one place", func(t *testing.T) {
		q := mondayQuery()
		q.Existing = []models.BookingInterval{booking("b1")}
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.Len(t, slots, 2)
		assert.Equal(t, 1, slots[0].RemainingCapacity)
		assert.Equal(t, 2, slots[1].RemainingCapacity)
	})

	t.Run("full slot is omitted", func(t *testing.T) {
		q := mondayQuery()
		q.Existing = []models.BookingInterval{booking("b1"), booking("b2")}
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.Len(t, slots, 1)
		assert.Equal(t, "10:00-11:00", slots[0].Label())
	})

	t.Run("shrunk capacity never goes negative", func(t *testing.T) {
		q := mondayQuery()
		q.Existing = []models.BookingInterval{booking("b1"), booking("b2")}
		q.Overrides = models.OverrideSet{{
			Date:        "2025-03-03",
			Available:   true,
			TimeWindows: []models.TimeWindow{{Start: 9 * 60, End: 11 * 60, MaxBookings: 1}},
		}}
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		for _, s := range collect(seq) {
			assert.Positive(t, s.RemainingCapacity)
			assert.NotEqual(t, "09:00-10:00", s.Label())
		}
	})
}

func TestGenerateSlotsNoticeAndHorizon(t *testing.T) {
	t.Run("minimum notice", func(t *testing.T) {
		q := mondayQuery()
		q.Settings.MinimumNoticeHours = 1
		q.Now = time.Date(2025, 3, 3, 8, 30, 0, 0, time.UTC)
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.Len(t, slots, 1)
		assert.Equal(t, "10:00-11:00", slots[0].Label())
	})

	t.Run("advance booking horizon", func(t *testing.T) {
		q := mondayQuery()
		q.Settings.AdvanceBookingDays = 1
		q.Now = time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.Len(t, slots, 1)
		assert.Equal(t, "09:00-10:00", slots[0].Label())
	})

	t.Run("every slot is within bounds", func(t *testing.T) {
		q := mondayQuery()
		q.Settings.MinimumNoticeHours = 2
		q.Settings.AdvanceBookingDays = 10
		q.Now = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
		q.RangeStart = q.Now
		q.RangeEnd = q.Now.AddDate(0, 0, 60)
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.NotEmpty(t, slots)
		for _, s := range slots {
			assert.False(t, s.StartsAt.Before(q.Now.Add(2*time.Hour)), s.StartsAt)
			assert.False(t, s.StartsAt.After(q.Now.AddDate(0, 0, 10)), s.StartsAt)
		}
	})
}

func TestGenerateSlotsRangeIsCalendarDates(t *testing.T) {
	t.Run("same start and end date covers the whole day", func(t *testing.T) {
		q := mondayQuery()
		q.RangeStart, q.RangeEnd = monday, monday
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		slots := collect(seq)
		require.Len(t, slots, 2)
		assert.Equal(t, "09:00-10:00", slots[0].Label())
		assert.Equal(t, "10:00-11:00", slots[1].Label())
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		q := mondayQuery()
		q.RangeStart = time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
		q.RangeEnd = time.Date(2025, 3, 3, 9, 45, 0, 0, time.UTC)
		seq, err := availability.GenerateSlots(q)
		require.NoError(t, err)
		assert.Len(t, collect(seq), 2)
	})
}

func TestGenerateSlotsStepping(t *testing.T) {
	q := mondayQuery()
	q.Template.Days[time.Monday].TimeWindows = []models.TimeWindow{
		{Start: 13 * 60, End: 14 * 60, MaxBookings: 1},
		{Start: 9 * 60, End: 12 * 60, MaxBookings: 1},
	}
	q.Settings.SlotDurationMinutes = 45
	seq, err := availability.GenerateSlots(q)
	require.NoError(t, err)

	var labels []string
	for _, s := range collect(seq) {
		labels = append(labels, s.Label())
	}
	assert.Equal(t, []string{"09:00-09:45", "09:45-10:30", "10:30-11:15", "11:15-12:00", "13:00-13:45"}, labels)
}

func TestGenerateSlotsIsDeterministic(t *testing.T) {
	q := mondayQuery()
	q.RangeEnd = q.RangeStart.AddDate(0, 0, 21)
	first, err := availability.GenerateSlots(q)
	require.NoError(t, err)
	second, err := availability.GenerateSlots(q)
	require.NoError(t, err)

	a := collect(first)
	assert.Len(t, a, 8, "the end date is inclusive")
	assert.Equal(t, a, collect(second))
	assert.Equal(t, a, collect(first))
}

func TestGenerateSlotsStopsWhenConsumerStops(t *testing.T) {
	q := mondayQuery()
	q.Settings.AdvanceBookingDays = 3650
	q.RangeEnd = q.RangeStart.AddDate(10, 0, 0)
	seq, err := availability.GenerateSlots(q)
	require.NoError(t, err)

	var taken []models.Slot
	for s := range seq {
		taken = append(taken, s)
		if len(taken) == 3 {
			break
		}
	}
	require.Len(t, taken, 3)
	assert.Equal(t, "2025-03-10", taken[2].Date)
}

func TestGenerateSlotsTimezone(t *testing.T) {
	q := mondayQuery()
	q.Settings.Timezone = "Africa/Nairobi"
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)
	q.RangeStart, q.RangeEnd = wholeDay(time.Date(2025, 3, 3, 0, 0, 0, 0, nairobi))

	seq, err := availability.GenerateSlots(q)
	require.NoError(t, err)
	slots := collect(seq)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].StartsAt.Equal(time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)))
}

func TestGenerateSlotsErrors(t *testing.T) {
	t.Run("range ends before it starts", func(t *testing.T) {
		q := mondayQuery()
		q.RangeEnd = monday.AddDate(0, 0, -1)
		_, err := availability.GenerateSlots(q)
		var rangeErr *availability.InvalidRangeError
		require.ErrorAs(t, err, &rangeErr)
	})

	t.Run("zero slot duration", func(t *testing.T) {
		q := mondayQuery()
		q.Settings.SlotDurationMinutes = 0
		_, err := availability.GenerateSlots(q)
		var settingsErr *availability.InvalidSettingsError
		require.ErrorAs(t, err, &settingsErr)
		assert.Equal(t, "slotDurationMinutes", settingsErr.Field)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		q := mondayQuery()
		q.Settings.Timezone = "Mars/Olympus"
		_, err := availability.GenerateSlots(q)
		var settingsErr *availability.InvalidSettingsError
		require.ErrorAs(t, err, &settingsErr)
		assert.Equal(t, "timezone", settingsErr.Field)
	})
}

func TestCountOverlapping(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 3, 3, h, 0, 0, 0, time.UTC) }
	bookings := []models.BookingInterval{
		{BookingID: "a", Start: at(9), End: at(10)},
		{BookingID: "b", Start: at(10), End: at(11)},
		{BookingID: "c", Start: at(8), End: at(12)},
	}
	assert.Equal(t, 2, availability.CountOverlapping(bookings, at(9), at(10), ""))
	assert.Equal(t, 1, availability.CountOverlapping(bookings, at(9), at(10), "c"))
	assert.Equal(t, 0, availability.CountOverlapping(bookings, at(12), at(13), ""))
}

func TestFindWindow(t *testing.T) {
	day := models.DayAvailability{
		Available: true,
		TimeWindows: []models.TimeWindow{
			{Start: 540, End: 660, MaxBookings: 2},
			{Start: 780, End: 840, MaxBookings: 1},
		},
	}
	w, ok := availability.FindWindow(day, 600, 660)
	require.True(t, ok)
	assert.Equal(t, 2, w.MaxBookings)

	_, ok = availability.FindWindow(day, 630, 690)
	assert.False(t, ok, "slot straddling the window end")

	day.Available = false
	_, ok = availability.FindWindow(day, 540, 600)
	assert.False(t, ok)
}
