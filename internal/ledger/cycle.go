// Package ledger holds the card billing rules: which invoice cycle a purchase
// lands in, the closing and due dates of a cycle, and how a purchase is split
// into installments.
package ledger

import (
	"fmt"
	"time"
)

// Cycle is a card billing cycle ("competência"), identified by year and month.
type Cycle struct {
	Year  int
	Month time.Month
}

// CycleOf returns the calendar month containing t.
func CycleOf(t time.Time) Cycle {
	return Cycle{Year: t.Year(), Month: t.Month()}
}

// ParseCycle parses a "YYYY-MM" label.
func ParseCycle(label string) (Cycle, error) {
	t, err := time.Parse("2006-01", label)
	if err != nil {
		return Cycle{}, fmt.Errorf("invalid cycle %q: expected YYYY-MM", label)
	}
	return CycleOf(t), nil
}

func (c Cycle) String() string {
	return fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))
}

// AddMonths returns the cycle n months after c (n may be negative).
func (c Cycle) AddMonths(n int) Cycle {
	return CycleOf(time.Date(c.Year, c.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

// DaysIn returns the number of days in the cycle's month.
func (c Cycle) DaysIn() int {
	return time.Date(c.Year, c.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns the date for day-of-month d inside the cycle, clamped to the
// last day of the month (closing day 31 in February is the 28th/29th).
func (c Cycle) Day(d int) time.Time {
	if last := c.DaysIn(); d > last {
		d = last
	}
	if d < 1 {
		d = 1
	}
	return time.Date(c.Year, c.Month, d, 0, 0, 0, 0, time.UTC)
}

// NaturalCycle returns the cycle a purchase made on date is billed in. A
// purchase on or before the closing day belongs to its own month; after the
// closing day the current cycle is already closed and it moves to the next.
func NaturalCycle(date time.Time, closingDay int) Cycle {
	c := CycleOf(date)
	if date.Day() <= c.Day(closingDay).Day() {
		return c
	}
	return c.AddMonths(1)
}

// InvoiceDates returns the closing and due dates of cycle c for a card with
// the given closing and due days. The due date falls in the closing month
// when dueDay > closingDay and rolls to the following month otherwise.
func InvoiceDates(c Cycle, closingDay, dueDay int) (closing, due time.Time) {
	closing = c.Day(closingDay)
	if dueDay > closingDay {
		return closing, c.Day(dueDay)
	}
	return closing, c.AddMonths(1).Day(dueDay)
}
