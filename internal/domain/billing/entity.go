package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrZeroNights       = errors.New("billing requires at least one night")
	ErrLedgerImbalance  = errors.New("ledger invariant violated")
	ErrNothingRemaining = errors.New("payment exceeds remaining amount")
)

// PriceBreakdown is the pricing engine's output, all amounts in minor units
// of Currency.
type PriceBreakdown struct {
	NightlyRate        int64
	Nights             int
	BaseTotal          int64
	LengthOfStayOff    int64
	PromoOff           int64
	CleaningFee        int64
	ServiceFee         int64
	TaxAmount          int64
	PlatformFee        int64
	Total              int64
	Currency           string
	Exchange           ExchangeSnapshot
}

// Billing is the monetary bookkeeping record for exactly one reservation.
// Invariant after every mutation:
//
//	totalAmountPaid - totalRefunded == totalPrice - remainingAmount
type Billing struct {
	id              uuid.UUID
	reservationID   uuid.UUID
	nightlyRate     int64
	nights          int
	baseTotal       int64
	lengthOfStayOff int64
	promoOff        int64
	cleaningFee     int64
	serviceFee      int64
	taxAmount       int64
	platformFee     int64
	currency        string
	exchange        ExchangeSnapshot
	totalPrice      int64
	totalAmountPaid int64
	remainingAmount int64
	totalRefunded   int64
	hasRefunds      bool
	createdAt       time.Time
	updatedAt       time.Time
}

func NewBilling(reservationID uuid.UUID, breakdown PriceBreakdown, now time.Time) (*Billing, error) {
	if breakdown.Nights <= 0 {
		return nil, ErrZeroNights
	}

	total, err := NewMoney(breakdown.Total, breakdown.Currency)
	if err != nil {
		return nil, err
	}
	if err := total.ValidateChargeable(); err != nil {
		return nil, err
	}

	return &Billing{
		id:              uuid.New(),
		reservationID:   reservationID,
		nightlyRate:     breakdown.NightlyRate,
		nights:          breakdown.Nights,
		baseTotal:       breakdown.BaseTotal,
		lengthOfStayOff: breakdown.LengthOfStayOff,
		promoOff:        breakdown.PromoOff,
		cleaningFee:     breakdown.CleaningFee,
		serviceFee:      breakdown.ServiceFee,
		taxAmount:       breakdown.TaxAmount,
		platformFee:     breakdown.PlatformFee,
		currency:        total.Currency(),
		exchange:        breakdown.Exchange,
		totalPrice:      total.Amount(),
		remainingAmount: total.Amount(),
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ApplyPayment credits a captured payment against the outstanding balance.
// Idempotency is enforced one layer up via the event log; this method
// assumes each gateway event is applied exactly once.
func (b *Billing) ApplyPayment(amount int64, now time.Time) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount > b.remainingAmount {
		return ErrNothingRemaining
	}
	b.totalAmountPaid += amount
	b.remainingAmount -= amount
	b.updatedAt = now
	return b.validate()
}

func (b *Billing) ApplyRefund(amount int64, now time.Time) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if b.totalRefunded+amount > b.totalAmountPaid {
		return ErrRefundExceedsPayments
	}
	b.totalRefunded += amount
	b.remainingAmount += amount
	b.hasRefunds = true
	b.updatedAt = now
	return b.validate()
}

// FlagRefunds marks the billing at refund-request time, before any refund
// has settled through the gateway.
func (b *Billing) FlagRefunds(now time.Time) {
	b.hasRefunds = true
	b.updatedAt = now
}

func (b *Billing) validate() error {
	if b.totalAmountPaid-b.totalRefunded != b.totalPrice-b.remainingAmount {
		return ErrLedgerImbalance
	}
	return nil
}

func (b *Billing) IsSettled() bool {
	return b.remainingAmount == 0
}

func (b *Billing) ID() uuid.UUID              { return b.id }
func (b *Billing) ReservationID() uuid.UUID   { return b.reservationID }
func (b *Billing) NightlyRate() int64         { return b.nightlyRate }
func (b *Billing) Nights() int                { return b.nights }
func (b *Billing) BaseTotal() int64           { return b.baseTotal }
func (b *Billing) LengthOfStayOff() int64     { return b.lengthOfStayOff }
func (b *Billing) PromoOff() int64            { return b.promoOff }
func (b *Billing) CleaningFee() int64         { return b.cleaningFee }
func (b *Billing) ServiceFee() int64          { return b.serviceFee }
func (b *Billing) TaxAmount() int64           { return b.taxAmount }
func (b *Billing) PlatformFee() int64         { return b.platformFee }
func (b *Billing) Currency() string           { return b.currency }
func (b *Billing) Exchange() ExchangeSnapshot { return b.exchange }
func (b *Billing) TotalPrice() int64          { return b.totalPrice }
func (b *Billing) TotalAmountPaid() int64     { return b.totalAmountPaid }
func (b *Billing) RemainingAmount() int64     { return b.remainingAmount }
func (b *Billing) TotalRefunded() int64       { return b.totalRefunded }
func (b *Billing) HasRefunds() bool           { return b.hasRefunds }
func (b *Billing) CreatedAt() time.Time       { return b.createdAt }
func (b *Billing) UpdatedAt() time.Time       { return b.updatedAt }

func ReconstructBilling(
	id, reservationID uuid.UUID,
	nightlyRate int64, nights int,
	baseTotal, lengthOfStayOff, promoOff int64,
	cleaningFee, serviceFee, taxAmount, platformFee int64,
	currency string,
	exchange ExchangeSnapshot,
	totalPrice, totalAmountPaid, remainingAmount, totalRefunded int64,
	hasRefunds bool,
	createdAt, updatedAt time.Time,
) *Billing {
	return &Billing{
		id:              id,
		reservationID:   reservationID,
		nightlyRate:     nightlyRate,
		nights:          nights,
		baseTotal:       baseTotal,
		lengthOfStayOff: lengthOfStayOff,
		promoOff:        promoOff,
		cleaningFee:     cleaningFee,
		serviceFee:      serviceFee,
		taxAmount:       taxAmount,
		platformFee:     platformFee,
		currency:        currency,
		exchange:        exchange,
		totalPrice:      totalPrice,
		totalAmountPaid: totalAmountPaid,
		remainingAmount: remainingAmount,
		totalRefunded:   totalRefunded,
		hasRefunds:      hasRefunds,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}
