package catalog

import "time"

// Urgency classifies a due date relative to today.
type Urgency int

const (
	DaysLeft Urgency = iota
	DueToday
	Overdue
)

// Countdown is what the book page shows next to a due date. Days is always
// non-negative; Urgency tells which way it counts.
type Countdown struct {
	Urgency Urgency
	Days    int
}

// DaysRemaining is due minus today in whole calendar days; negative when overdue.
func DaysRemaining(due, today time.Time) int {
	return int(Day(due).Sub(Day(today)) / (24 * time.Hour))
}

func CountdownTo(due, today time.Time) Countdown {
	n := DaysRemaining(due, today)
	switch {
	case n < 0:
		return Countdown{Urgency: Overdue, Days: -n}
	case n == 0:
		return Countdown{Urgency: DueToday}
	default:
		return Countdown{Urgency: DaysLeft, Days: n}
	}
}

func (c Countdown) IsOverdue() bool  { return c.Urgency == Overdue }
func (c Countdown) IsDueToday() bool { return c.Urgency == DueToday }
