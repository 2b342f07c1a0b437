package types

import (
	"strings"
	"time"
)

// DayMask is a 7-bit weekday bitmask. Bit i corresponds to time.Weekday(i),
// so bit 0 is Sunday and bit 6 is Saturday. A zero mask means the alarm never
// fires and is rejected at validation time.
type DayMask uint8

// DayMaskAll has every weekday bit set.
const DayMaskAll DayMask = 0x7F

// Has reports whether the given weekday's bit is set.
func (m DayMask) Has(d time.Weekday) bool {
	return m&(1<<uint(d)) != 0
}

// With returns a copy of the mask with the given weekday's bit set.
func (m DayMask) With(d time.Weekday) DayMask {
	return m | (1 << uint(d))
}

// Valid reports whether the mask is non-empty and uses only the 7 weekday bits.
func (m DayMask) Valid() bool {
	return m != 0 && m <= DayMaskAll
}

// Days returns the set weekdays in Sunday-first order.
func (m DayMask) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if m.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the mask as a comma-separated weekday list, for logs.
func (m DayMask) String() string {
	if m == DayMaskAll {
		return "every day"
	}
	names := make([]string, 0, 7)
	for _, d := range m.Days() {
		names = append(names, d.String()[:3])
	}
	if len(names) == 0 {
		return "never"
	}
	return strings.Join(names, ",")
}
