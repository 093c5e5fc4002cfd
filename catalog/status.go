package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ReservationPeriod is how long a reservation holds a book.
const ReservationPeriod = 7 * 24 * time.Hour

// DateLayout is the calendar-day format used for due dates.
const DateLayout = "2006-01-02"

var ErrIntegrity = errors.New("inconsistent book status")

// State is the discriminant of Status.
type State int

const (
	Available State = iota
	Reserved
	Borrowed
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case Reserved:
		return "reserved"
	case Borrowed:
		return "borrowed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is the availability of one book copy. The zero value is Available.
// Holder and Due are meaningful only when State is Reserved or Borrowed; use
// the constructors so that holder and due date are always set together.
type Status struct {
	state  State
	holder int64
	due    time.Time
}

func AvailableStatus() Status { return Status{} }

func ReservedStatus(holder int64, due time.Time) Status {
	return Status{state: Reserved, holder: holder, due: Day(due)}
}

func BorrowedStatus(holder int64, due time.Time) Status {
	return Status{state: Borrowed, holder: holder, due: Day(due)}
}

// FromRaw rebuilds a status from its stored parts. A missing flag means the
// copy is available; otherwise holder and due must both be present. Any other
// combination is reported as ErrIntegrity.
func FromRaw(isBorrow *bool, holder *int64, due *time.Time) (Status, error) {
	if isBorrow == nil {
		if holder != nil || due != nil {
			return Status{}, fmt.Errorf("%w: holder or date set on an available book", ErrIntegrity)
		}
		return AvailableStatus(), nil
	}
	if holder == nil || due == nil {
		return Status{}, fmt.Errorf("%w: borrow flag set without holder and date", ErrIntegrity)
	}
	if *isBorrow {
		return BorrowedStatus(*holder, *due), nil
	}
	return ReservedStatus(*holder, *due), nil
}

// Raw splits the status into its stored parts; the inverse of FromRaw.
func (s Status) Raw() (isBorrow *bool, holder *int64, due *time.Time) {
	if s.state == Available {
		return nil, nil, nil
	}
	flag := s.state == Borrowed
	h, d := s.holder, s.due
	return &flag, &h, &d
}

func (s Status) State() State      { return s.state }
func (s Status) IsAvailable() bool { return s.state == Available }
func (s Status) IsReserved() bool  { return s.state == Reserved }
func (s Status) IsBorrowed() bool  { return s.state == Borrowed }

// Holder returns the account occupying the book, if any.
func (s Status) Holder() (int64, bool) {
	if s.state == Available {
		return 0, false
	}
	return s.holder, true
}

// Due returns the due date, if any.
func (s Status) Due() (time.Time, bool) {
	if s.state == Available {
		return time.Time{}, false
	}
	return s.due, true
}

// Ownership tells a viewer whether they hold the book and until when it is
// occupied. due is nil for an available book.
func (s Status) Ownership(viewer int64) (isHolder bool, due *time.Time) {
	if s.state == Available {
		return false, nil
	}
	d := s.due
	return s.holder == viewer, &d
}

func (s Status) String() string {
	if s.state == Available {
		return s.state.String()
	}
	return fmt.Sprintf("%s(%d, %s)", s.state, s.holder, s.due.Format(DateLayout))
}

// OutcomeKind says how a reservation request ended.
type OutcomeKind int

const (
	OutcomeReserved OutcomeKind = iota
	OutcomeAlreadyReserved
	OutcomeAlreadyBorrowed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReserved:
		return "reserved"
	case OutcomeAlreadyReserved:
		return "already_reserved"
	case OutcomeAlreadyBorrowed:
		return "already_borrowed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// ReserveOutcome is the result of a reservation request. Due is the new due
// date on success, or the existing one when the book was already taken.
type ReserveOutcome struct {
	Kind OutcomeKind
	Due  time.Time
}

func (o ReserveOutcome) Succeeded() bool { return o.Kind == OutcomeReserved }

// Reserve decides a reservation by caller on the given day. It never mutates
// s; the returned status equals s unless the outcome is OutcomeReserved.
func (s Status) Reserve(caller int64, today time.Time) (Status, ReserveOutcome) {
	switch s.state {
	case Reserved:
		return s, ReserveOutcome{Kind: OutcomeAlreadyReserved, Due: s.due}
	case Borrowed:
		return s, ReserveOutcome{Kind: OutcomeAlreadyBorrowed, Due: s.due}
	default:
		next := ReservedStatus(caller, Day(today).Add(ReservationPeriod))
		return next, ReserveOutcome{Kind: OutcomeReserved, Due: next.due}
	}
}

// Day is midnight of t's calendar day in UTC, whatever t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a stored due date.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDay is the stored form of a due date.
func FormatDay(t time.Time) string {
	return Day(t).Format(DateLayout)
}
