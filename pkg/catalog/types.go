package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Interval is the billing cadence of a pricing tier.
type Interval string

const (
	IntervalDay      Interval = "day"
	IntervalWeek     Interval = "week"
	IntervalMonth    Interval = "month"
	IntervalSemester Interval = "semester"
	IntervalYear     Interval = "year"
)

// intervalDays holds the additive day span of each interval. Spans are fixed
// day counts, not calendar arithmetic: a month is always 30 days regardless
// of the starting date.
var intervalDays = map[Interval]int{
	IntervalDay:      1,
	IntervalWeek:     7,
	IntervalMonth:    30,
	IntervalSemester: 180,
	IntervalYear:     365,
}

// Valid reports whether the interval is one of the supported cadences.
func (i Interval) Valid() bool {
	_, ok := intervalDays[i]
	return ok
}

// Days returns the additive day span of the interval, or 0 for unknown values.
func (i Interval) Days() int {
	return intervalDays[i]
}

// EndDate returns the period end for a term starting at the given time.
func (i Interval) EndDate(start time.Time) time.Time {
	return start.AddDate(0, 0, i.Days()).UTC()
}

// Intervals lists the supported cadences in ascending span order.
func Intervals() []Interval {
	return []Interval{IntervalDay, IntervalWeek, IntervalMonth, IntervalSemester, IntervalYear}
}

// Feature describes a marketable capability included in a plan.
type Feature struct {
	ID          uuid.UUID
	Name        string
	Description string
}
