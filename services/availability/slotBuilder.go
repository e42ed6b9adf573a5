package availability

import (
	"iter"
	"sort"
	"time"

	"bloomify-scheduler/models"
)

// SlotQuery carries every input of GenerateSlots. Now is injected so that
// generation is deterministic. RangeStart and RangeEnd name calendar dates,
// both inclusive, read in the settings' timezone.
type SlotQuery struct {
	Template   models.WeeklyTemplate
	Overrides  models.OverrideSet
	Settings   models.BookingSettings
	Existing   []models.BookingInterval
	RangeStart time.Time
	RangeEnd   time.Time
	Now        time.Time
}

// GenerateSlots validates q and returns a lazy sequence of bookable slots ordered
// by date then start time. The sequence can be ranged over any number of times
// and only does work for the slots actually consumed.
func GenerateSlots(q SlotQuery) (iter.Seq[models.Slot], error) {
	loc, err := ValidateSettings(q.Settings, q.Now)
	if err != nil {
		return nil, err
	}
	firstDay := DayStart(q.RangeStart, loc)
	lastDay := DayStart(q.RangeEnd, loc)
	if lastDay.Before(firstDay) {
		return nil, &InvalidRangeError{Start: q.RangeStart, End: q.RangeEnd}
	}

	// Slots start within [earliest, latest]: after the notice period and no
	// later than the booking horizon.
	earliest := q.Now.Add(q.Settings.MinimumNotice())
	latest := q.Settings.BookingHorizon(q.Now)
	step := q.Settings.SlotDurationMinutes
	if notice := DayStart(earliest, loc); notice.After(firstDay) {
		firstDay = notice
	}
	if horizon := DayStart(latest, loc); horizon.Before(lastDay) {
		lastDay = horizon
	}

	existing := make([]models.BookingInterval, len(q.Existing))
	copy(existing, q.Existing)
	template := q.Template
	overrides := q.Overrides

	return func(yield func(models.Slot) bool) {
		for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
			date := day.Format(models.DateLayout)
			for _, w := range sortedWindows(ResolveDay(template, overrides, day)) {
				for start := w.Start; start+step <= w.End; start += step {
					startsAt := AtMinute(day, start)
					if startsAt.After(latest) {
						return
					}
					if startsAt.Before(earliest) {
						continue
					}
					endsAt := AtMinute(day, start+step)

					remaining := w.MaxBookings - CountOverlapping(existing, startsAt, endsAt, "")
					if remaining <= 0 {
						continue
					}

					slot := models.Slot{
						Date:              date,
						Start:             start,
						End:               start + step,
						StartsAt:          startsAt,
						EndsAt:            endsAt,
						RemainingCapacity: remaining,
					}
					if !yield(slot) {
						return
					}
				}
			}
		}
	}, nil
}

// ResolveDay returns the availability in force on day: the override for that
// date if one exists, otherwise the template entry for its weekday.
func ResolveDay(t models.WeeklyTemplate, overrides models.OverrideSet, day time.Time) models.DayAvailability {
	if o, ok := overrides.ForDate(day.Format(models.DateLayout)); ok {
		return o.Day()
	}
	return t.Day(day.Weekday())
}

// FindWindow returns the open window of day that fully contains [start, end).
func FindWindow(day models.DayAvailability, start, end int) (models.TimeWindow, bool) {
	if !day.Available {
		return models.TimeWindow{}, false
	}
	for _, w := range day.TimeWindows {
		if w.Contains(start, end) {
			return w, true
		}
	}
	return models.TimeWindow{}, false
}

// CountOverlapping counts bookings intersecting [start, end), ignoring skipID.
func CountOverlapping(bookings []models.BookingInterval, start, end time.Time, skipID string) int {
	n := 0
	for _, b := range bookings {
		if skipID != "" && b.BookingID == skipID {
			continue
		}
		if b.Overlaps(start, end) {
			n++
		}
	}
	return n
}

// DayStart returns local midnight of t's calendar date in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// AtMinute returns the instant m minutes after the wall-clock midnight of day.
func AtMinute(day time.Time, m int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, m, 0, 0, day.Location())
}

func sortedWindows(day models.DayAvailability) []models.TimeWindow {
	if !day.Available || len(day.TimeWindows) == 0 {
		return nil
	}
	windows := make([]models.TimeWindow, len(day.TimeWindows))
	copy(windows, day.TimeWindows)
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	return windows
}
