//go:build unit || e2e

package builder

import (
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	domreservation "github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	reqdto "github.com/mukuljibh/airbnb-backend-sub000/internal/handler/dto/request"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/queries"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationBuilder struct {
	ID               uuid.UUID
	HostID           uuid.UUID
	UserID           uuid.UUID
	PropertyID       uuid.UUID
	PropertyTitle    string
	CheckIn          time.Time
	CheckOut         time.Time
	PartySize        int
	Status           domreservation.Status
	IsSelfBooked     bool
	IsInstantBooking bool
	HostDecision     *domreservation.HostDecision
	CheckoutRef      *string
	PaymentLink      *string
	ExpiresAt        *time.Time
	CreatedAt        time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	now := time.Now().UTC()
	checkIn := domreservation.TruncateToDate(now.AddDate(0, 0, 7))
	return &ReservationBuilder{
		ID:            uuid.New(),
		HostID:        uuid.New(),
		UserID:        uuid.New(),
		PropertyID:    uuid.New(),
		PropertyTitle: "Seaside Cottage",
		CheckIn:       checkIn,
		CheckOut:      checkIn.AddDate(0, 0, 3),
		PartySize:     2,
		Status:        domreservation.StatusOpen,
		CreatedAt:     now,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

// Build methods

func (b *ReservationBuilder) BuildDomain() *domreservation.Reservation {
	dateRange, err := domreservation.NewDateRange(b.CheckIn, b.CheckOut)
	if err != nil {
		panic(err)
	}
	partySize, err := domreservation.NewPartySize(b.PartySize)
	if err != nil {
		panic(err)
	}
	return domreservation.ReconstructReservation(
		b.ID, b.HostID, b.UserID, b.PropertyID,
		dateRange, partySize, b.Status,
		b.IsSelfBooked, b.IsInstantBooking,
		b.HostDecision, nil,
		nil, b.CheckoutRef, b.PaymentLink,
		b.ExpiresAt, nil, nil, nil,
		b.CreatedAt, b.CreatedAt,
	)
}

func (b *ReservationBuilder) BuildPropertySpec() domreservation.PropertySpec {
	return domreservation.PropertySpec{
		ID:               b.PropertyID,
		HostID:           b.HostID,
		MaxGuests:        4,
		IsInstantBooking: b.IsInstantBooking,
	}
}

func (b *ReservationBuilder) BuildPropertySnapshot() *shared.PropertySnapshot {
	return &shared.PropertySnapshot{
		ID:               b.PropertyID,
		HostID:           b.HostID,
		Title:            b.PropertyTitle,
		MaxGuests:        4,
		IsInstantBooking: b.IsInstantBooking,
		NightlyRate:      12_000,
		CleaningFee:      3_000,
		Currency:         "usd",
	}
}

func (b *ReservationBuilder) BuildCreateRequestDTO() reqdto.CreateReservationRequest {
	return reqdto.CreateReservationRequest{
		CheckInDate:  b.CheckIn.Format("2006-01-02"),
		CheckOutDate: b.CheckOut.Format("2006-01-02"),
		PartySize:    b.PartySize,
	}
}

func (b *ReservationBuilder) BuildView() *queries.ReservationView {
	return &queries.ReservationView{
		ID:               b.ID,
		PropertyID:       b.PropertyID,
		PropertyTitle:    b.PropertyTitle,
		HostID:           b.HostID,
		UserID:           b.UserID,
		CheckInDate:      b.CheckIn,
		CheckOutDate:     b.CheckOut,
		PartySize:        b.PartySize,
		Status:           b.Status.String(),
		IsSelfBooked:     b.IsSelfBooked,
		IsInstantBooking: b.IsInstantBooking,
		PaymentLink:      b.PaymentLink,
		ExpiresAt:        b.ExpiresAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.CreatedAt,
	}
}

func (b *ReservationBuilder) BuildListItem() *queries.ReservationListItem {
	return &queries.ReservationListItem{
		ID:            b.ID,
		PropertyID:    b.PropertyID,
		PropertyTitle: b.PropertyTitle,
		CheckInDate:   b.CheckIn,
		CheckOutDate:  b.CheckOut,
		Status:        b.Status.String(),
		CreatedAt:     b.CreatedAt,
	}
}

func (b *ReservationBuilder) BuildBreakdown() billing.PriceBreakdown {
	nights := int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
	base := int64(nights) * 12_000
	return billing.PriceBreakdown{
		NightlyRate: 12_000,
		Nights:      nights,
		BaseTotal:   base,
		CleaningFee: 3_000,
		ServiceFee:  base * 12 / 100,
		TaxAmount:   base * 8 / 100,
		PlatformFee: base * 3 / 100,
		Total:       base + 3_000 + base*12/100 + base*8/100 + base*3/100,
		Currency:    "usd",
		Exchange: billing.ExchangeSnapshot{
			Rate:           1,
			BaseCurrency:   "usd",
			TargetCurrency: "usd",
			CapturedAt:     b.CreatedAt,
		},
	}
}

func (b *ReservationBuilder) BuildBilling() (*billing.Billing, error) {
	return billing.NewBilling(b.ID, b.BuildBreakdown(), b.CreatedAt)
}

// Fluent builder methods

func (b *ReservationBuilder) WithStatus(status domreservation.Status) *ReservationBuilder {
	b.Status = status
	return b
}

func (b *ReservationBuilder) WithDates(checkIn, checkOut time.Time) *ReservationBuilder {
	b.CheckIn = domreservation.TruncateToDate(checkIn)
	b.CheckOut = domreservation.TruncateToDate(checkOut)
	return b
}

func (b *ReservationBuilder) WithPartySize(size int) *ReservationBuilder {
	b.PartySize = size
	return b
}

func (b *ReservationBuilder) WithUserID(userID uuid.UUID) *ReservationBuilder {
	b.UserID = userID
	return b
}

func (b *ReservationBuilder) WithHostID(hostID uuid.UUID) *ReservationBuilder {
	b.HostID = hostID
	return b
}

func (b *ReservationBuilder) WithCheckout(sessionID, url string) *ReservationBuilder {
	b.CheckoutRef = &sessionID
	b.PaymentLink = &url
	return b
}

func (b *ReservationBuilder) WithExpiresAt(at time.Time) *ReservationBuilder {
	b.ExpiresAt = &at
	return b
}

func (b *ReservationBuilder) WithHostDecision(decision domreservation.HostDecision) *ReservationBuilder {
	b.HostDecision = &decision
	return b
}

func (b *ReservationBuilder) AsInstantBooking() *ReservationBuilder {
	b.IsInstantBooking = true
	return b
}

func (b *ReservationBuilder) AsSelfBooked() *ReservationBuilder {
	b.IsSelfBooked = true
	b.UserID = b.HostID
	b.PartySize = 1
	b.Status = domreservation.StatusComplete
	return b
}

func (b *ReservationBuilder) AsAwaitingConfirmation() *ReservationBuilder {
	b.Status = domreservation.StatusAwaitingConfirmation
	return b
}
