package valuation

import "time"

// dayIndex maps calendar days (midnight UTC) in [start, end] to offsets.
type dayIndex struct {
	start time.Time
	end   time.Time
}

func newDayIndex(start, end time.Time) dayIndex {
	return dayIndex{start: start, end: end}
}

func (d dayIndex) len() int {
	return d.index(d.end) + 1
}

// index is exact because both ends are UTC midnights, which have no DST shifts.
func (d dayIndex) index(day time.Time) int {
	return int(day.Sub(d.start) / (24 * time.Hour))
}

func (d dayIndex) day(i int) time.Time {
	return d.start.AddDate(0, 0, i)
}
