package reservation

import (
	"errors"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrPartySizeExceedsCapacity = errors.New("party size exceeds property capacity")
	ErrHostCannotBookOwn        = errors.New("host cannot book their own property as a guest")
	ErrOnlyHostCanSelfBook      = errors.New("only the property host can block their own calendar")
)

type PropertySpec struct {
	ID               uuid.UUID
	HostID           uuid.UUID
	MaxGuests        int
	IsInstantBooking bool
}

type Factory struct {
	Clock         clock.Clock
	PaymentWindow time.Duration
}

func NewFactory(clock clock.Clock, paymentWindow time.Duration) *Factory {
	return &Factory{
		Clock:         clock,
		PaymentWindow: paymentWindow,
	}
}

// CreateReservation builds a guest booking in the open state with a payment
// deadline. Availability is a store-level invariant; the overlap conflict
// surfaces on insert, not here.
func (f *Factory) CreateReservation(
	property PropertySpec,
	guestID uuid.UUID,
	dateRange DateRange,
	partySize PartySize,
) (*Reservation, error) {
	now := f.Clock.Now()

	if err := dateRange.ValidateNotPast(now); err != nil {
		return nil, err
	}
	if property.HostID == guestID {
		return nil, ErrHostCannotBookOwn
	}
	if property.MaxGuests > 0 && partySize.Value() > property.MaxGuests {
		return nil, ErrPartySizeExceedsCapacity
	}

	expiresAt := now.Add(f.PaymentWindow)

	return &Reservation{
		id:               uuid.New(),
		hostID:           property.HostID,
		userID:           guestID,
		propertyID:       property.ID,
		dateRange:        dateRange,
		partySize:        partySize,
		status:           StatusOpen,
		isInstantBooking: property.IsInstantBooking,
		expiresAt:        &expiresAt,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// CreateSelfBooking blocks the host's own calendar. No payment lifecycle:
// the reservation is complete immediately and never expires.
func (f *Factory) CreateSelfBooking(
	property PropertySpec,
	hostID uuid.UUID,
	dateRange DateRange,
) (*Reservation, error) {
	now := f.Clock.Now()

	if err := dateRange.ValidateNotPast(now); err != nil {
		return nil, err
	}
	if property.HostID != hostID {
		return nil, ErrOnlyHostCanSelfBook
	}

	partySize, _ := NewPartySize(1)
	confirmedAt := now

	return &Reservation{
		id:           uuid.New(),
		hostID:       hostID,
		userID:       hostID,
		propertyID:   property.ID,
		dateRange:    dateRange,
		partySize:    partySize,
		status:       StatusComplete,
		isSelfBooked: true,
		confirmedAt:  &confirmedAt,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}
