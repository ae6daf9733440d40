package reservation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDateRange = errors.New("check-out must be after check-in")
	ErrCheckInInPast    = errors.New("check-in date cannot be in the past")
	ErrInvalidPartySize = errors.New("party size must be positive")
)

// DateRange is a half-open [checkIn, checkOut) interval with date-only
// semantics: both bounds are truncated to midnight UTC.
type DateRange struct {
	checkIn  time.Time
	checkOut time.Time
}

func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	in := TruncateToDate(checkIn)
	out := TruncateToDate(checkOut)

	if !out.After(in) {
		return DateRange{}, ErrInvalidDateRange
	}

	return DateRange{checkIn: in, checkOut: out}, nil
}

func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r DateRange) CheckIn() time.Time {
	return r.checkIn
}

func (r DateRange) CheckOut() time.Time {
	return r.checkOut
}

func (r DateRange) Nights() int {
	return int(r.checkOut.Sub(r.checkIn).Hours() / 24)
}

func (r DateRange) Overlaps(other DateRange) bool {
	return r.checkIn.Before(other.checkOut) && other.checkIn.Before(r.checkOut)
}

func (r DateRange) CheckInPassed(now time.Time) bool {
	return !TruncateToDate(now).Before(r.checkIn)
}

func (r DateRange) ValidateNotPast(now time.Time) error {
	if r.checkIn.Before(TruncateToDate(now)) {
		return ErrCheckInInPast
	}
	return nil
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s,%s)", r.checkIn.Format("2006-01-02"), r.checkOut.Format("2006-01-02"))
}

type PartySize struct {
	value int
}

func NewPartySize(value int) (PartySize, error) {
	if value <= 0 {
		return PartySize{}, ErrInvalidPartySize
	}
	return PartySize{value: value}, nil
}

func (p PartySize) Value() int {
	return p.value
}
