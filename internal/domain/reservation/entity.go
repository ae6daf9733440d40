package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition    = errors.New("invalid reservation status transition")
	ErrAlreadyCancelled     = errors.New("reservation is already cancelled")
	ErrCheckInPassed        = errors.New("check-in date has passed")
	ErrNotAwaitingDecision  = errors.New("reservation is not awaiting host confirmation")
	ErrInvalidHostDecision  = errors.New("invalid host decision")
	ErrDecisionAlreadyMade  = errors.New("host decision already recorded")
	ErrNotCancellable       = errors.New("reservation cannot be cancelled in its current status")
	ErrCancelNotRequested   = errors.New("no cancellation pending for this reservation")
	ErrInvalidCancelledBy   = errors.New("invalid cancellation origin")
	ErrSelfBookedImmutable  = errors.New("self-booked reservation has no payment lifecycle")
	ErrPaymentNotInProgress = errors.New("reservation has no payment in progress")
)

type Reservation struct {
	id               uuid.UUID
	hostID           uuid.UUID
	userID           uuid.UUID
	propertyID       uuid.UUID
	dateRange        DateRange
	partySize        PartySize
	status           Status
	isSelfBooked     bool
	isInstantBooking bool
	hostDecision     *HostDecision
	cancelledBy      *CancelledBy
	cancelReason     *string
	checkoutRef      *string
	paymentLink      *string
	expiresAt        *time.Time
	confirmedAt      *time.Time
	cancelledAt      *time.Time
	hostDecisionAt   *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// StartProcessing records the gateway's checkout-started signal. The payment
// deadline is cleared here: once the guest is inside the checkout flow the
// reservation is no longer eligible for the TTL sweep.
func (r *Reservation) StartProcessing(now time.Time) error {
	if r.isSelfBooked {
		return ErrSelfBookedImmutable
	}
	if r.status != StatusOpen {
		return ErrInvalidTransition
	}
	r.status = StatusProcessing
	r.expiresAt = nil
	r.touch(now)
	return nil
}

// MarkPaymentCaptured moves a processing reservation forward once funds are
// captured. Instant bookings complete immediately; everything else waits on
// the host's decision.
func (r *Reservation) MarkPaymentCaptured(now time.Time) error {
	if r.isSelfBooked {
		return ErrSelfBookedImmutable
	}

	switch r.status {
	case StatusOpen:
		// Checkout-started and payment-captured events can arrive out of
		// order; capture implies the session was opened.
		r.expiresAt = nil
	case StatusProcessing:
	default:
		return ErrInvalidTransition
	}

	if r.isInstantBooking {
		r.status = StatusComplete
		r.confirmedAt = &now
	} else {
		r.status = StatusAwaitingConfirmation
	}
	r.touch(now)
	return nil
}

func (r *Reservation) Approve(now time.Time) error {
	if r.status != StatusAwaitingConfirmation {
		return ErrNotAwaitingDecision
	}
	if r.hostDecision != nil {
		return ErrDecisionAlreadyMade
	}
	decision := HostDecisionApproved
	r.hostDecision = &decision
	r.hostDecisionAt = &now
	r.confirmedAt = &now
	r.status = StatusComplete
	r.touch(now)
	return nil
}

func (r *Reservation) Reject(now time.Time, reason string) error {
	if r.status != StatusAwaitingConfirmation {
		return ErrNotAwaitingDecision
	}
	if r.hostDecision != nil {
		return ErrDecisionAlreadyMade
	}
	decision := HostDecisionRejected
	r.hostDecision = &decision
	r.hostDecisionAt = &now
	r.cancelReason = &reason
	// Status stays awaiting_confirmation until the refund settles; the
	// refund webhook drives the transition to cancelled.
	r.touch(now)
	return nil
}

// ValidateCancellable checks the guest/host-initiated cancellation
// preconditions without mutating state. The actual transition happens in
// MarkCancelled once the refund is confirmed.
func (r *Reservation) ValidateCancellable(now time.Time) error {
	switch r.status {
	case StatusAwaitingConfirmation, StatusComplete:
	case StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrNotCancellable
	}
	if r.dateRange.CheckInPassed(now) {
		return ErrCheckInPassed
	}
	return nil
}

func (r *Reservation) MarkCancelled(by CancelledBy, reason *string, now time.Time) error {
	if !by.IsValid() {
		return ErrInvalidCancelledBy
	}
	if r.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	r.status = StatusCancelled
	r.cancelledBy = &by
	r.cancelledAt = &now
	if reason != nil {
		r.cancelReason = reason
	}
	r.touch(now)
	return nil
}

func (r *Reservation) AttachCheckout(sessionID, url string, now time.Time) error {
	if r.isSelfBooked {
		return ErrSelfBookedImmutable
	}
	if r.status != StatusOpen {
		return ErrInvalidTransition
	}
	r.checkoutRef = &sessionID
	r.paymentLink = &url
	r.touch(now)
	return nil
}

func (r *Reservation) IsActive() bool {
	return r.status != StatusCancelled
}

func (r *Reservation) RequiresHostDecision() bool {
	return r.status == StatusAwaitingConfirmation && r.hostDecision == nil
}

func (r *Reservation) HasExpired(now time.Time) bool {
	return r.status == StatusOpen && r.expiresAt != nil && now.After(*r.expiresAt)
}

func (r *Reservation) touch(now time.Time) {
	r.updatedAt = now
}

func (r *Reservation) ID() uuid.UUID               { return r.id }
func (r *Reservation) HostID() uuid.UUID           { return r.hostID }
func (r *Reservation) UserID() uuid.UUID           { return r.userID }
func (r *Reservation) PropertyID() uuid.UUID       { return r.propertyID }
func (r *Reservation) DateRange() DateRange        { return r.dateRange }
func (r *Reservation) PartySize() PartySize        { return r.partySize }
func (r *Reservation) Status() Status              { return r.status }
func (r *Reservation) IsSelfBooked() bool          { return r.isSelfBooked }
func (r *Reservation) IsInstantBooking() bool      { return r.isInstantBooking }
func (r *Reservation) HostDecision() *HostDecision { return r.hostDecision }
func (r *Reservation) CancelledBy() *CancelledBy   { return r.cancelledBy }
func (r *Reservation) CancelReason() *string       { return r.cancelReason }
func (r *Reservation) CheckoutRef() *string        { return r.checkoutRef }
func (r *Reservation) PaymentLink() *string        { return r.paymentLink }
func (r *Reservation) ExpiresAt() *time.Time       { return r.expiresAt }
func (r *Reservation) ConfirmedAt() *time.Time     { return r.confirmedAt }
func (r *Reservation) CancelledAt() *time.Time     { return r.cancelledAt }
func (r *Reservation) HostDecisionAt() *time.Time  { return r.hostDecisionAt }
func (r *Reservation) CreatedAt() time.Time        { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time        { return r.updatedAt }

func ReconstructReservation(
	id, hostID, userID, propertyID uuid.UUID,
	dateRange DateRange,
	partySize PartySize,
	status Status,
	isSelfBooked, isInstantBooking bool,
	hostDecision *HostDecision,
	cancelledBy *CancelledBy,
	cancelReason, checkoutRef, paymentLink *string,
	expiresAt, confirmedAt, cancelledAt, hostDecisionAt *time.Time,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:               id,
		hostID:           hostID,
		userID:           userID,
		propertyID:       propertyID,
		dateRange:        dateRange,
		partySize:        partySize,
		status:           status,
		isSelfBooked:     isSelfBooked,
		isInstantBooking: isInstantBooking,
		hostDecision:     hostDecision,
		cancelledBy:      cancelledBy,
		cancelReason:     cancelReason,
		checkoutRef:      checkoutRef,
		paymentLink:      paymentLink,
		expiresAt:        expiresAt,
		confirmedAt:      confirmedAt,
		cancelledAt:      cancelledAt,
		hostDecisionAt:   hostDecisionAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}
