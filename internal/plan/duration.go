package plan

import (
	"errors"
	"time"
)

var ErrUnsupportedDurationUnit = errors.New("unsupported duration unit")

// AddDuration advances t by the plan duration using calendar arithmetic.
// Month and year additions clamp to the last valid day of the target month:
// Jan 31 + 1 month lands on Feb 28/29, not Mar 2. time.AddDate would
// normalize the overflow forward, which is the wrong policy for membership
// expiry dates.
func AddDuration(t time.Time, value int, unit DurationUnit) (time.Time, error) {
	switch unit {
	case UnitDay:
		return t.AddDate(0, 0, value), nil
	case UnitWeek:
		return t.AddDate(0, 0, 7*value), nil
	case UnitMonth:
		return addMonthsClamped(t, value), nil
	case UnitYear:
		return addMonthsClamped(t, 12*value), nil
	default:
		return time.Time{}, ErrUnsupportedDurationUnit
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	m := int(month) - 1 + months
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	targetMonth := time.Month(m + 1)

	if last := daysInMonth(year, targetMonth); day > last {
		day = last
	}

	return time.Date(year, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// day 0 of the following month is the last day of m.
func daysInMonth(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func ParseDurationUnit(s string) (DurationUnit, error) {
	switch DurationUnit(s) {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return DurationUnit(s), nil
	default:
		return "", ErrUnsupportedDurationUnit
	}
}
