package billing

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNegativeAmount        = errors.New("amount cannot be negative")
	ErrUnsupportedCurrency   = errors.New("unsupported currency")
	ErrAmountExceedsGateway  = errors.New("amount exceeds gateway maximum for currency")
	ErrCurrencyMismatch      = errors.New("currency mismatch")
	ErrInvalidExchangeRate   = errors.New("exchange rate must be positive")
	ErrRefundExceedsPayments = errors.New("refund exceeds amount paid")
)

// Currencies the gateway treats as having no minor unit: amounts are
// expressed in whole units on the wire.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {},
	"kmf": {}, "krw": {}, "mga": {}, "pyg": {}, "rwf": {},
	"ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// The gateway caps a single charge at 8 digits of the currency's smallest
// transactable unit (999,999.99 USD, 99,999,999 JPY).
const gatewayMaxMinorUnits int64 = 99_999_999

// Money is an amount in hundredths of the currency unit, regardless of
// whether the currency has a minor unit. Zero-decimal currencies are
// converted at the gateway boundary.
type Money struct {
	amount   int64
	currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	cur := strings.ToLower(currency)
	if len(cur) != 3 {
		return Money{}, ErrUnsupportedCurrency
	}
	return Money{amount: amount, currency: cur}, nil
}

func (m Money) Amount() int64 {
	return m.amount
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsZeroDecimal() bool {
	_, ok := zeroDecimalCurrencies[m.currency]
	return ok
}

// GatewayAmount returns the value to send to the gateway: minor units for
// decimal currencies, whole units for zero-decimal ones.
func (m Money) GatewayAmount() int64 {
	if m.IsZeroDecimal() {
		return m.amount / 100
	}
	return m.amount
}

// GatewayToMinor converts an amount as the gateway reports it back into
// internal hundredths.
func GatewayToMinor(amount int64, currency string) int64 {
	if _, ok := zeroDecimalCurrencies[strings.ToLower(currency)]; ok {
		return amount * 100
	}
	return amount
}

// ValidateChargeable ensures the amount fits inside the gateway's documented
// per-charge maximum before any charge is attempted.
func (m Money) ValidateChargeable() error {
	if m.GatewayAmount() > gatewayMaxMinorUnits {
		return ErrAmountExceedsGateway
	}
	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// ExchangeSnapshot pins the conversion rate used when the billing was
// created so later rate changes never alter a settled booking.
type ExchangeSnapshot struct {
	Rate           float64
	BaseCurrency   string
	TargetCurrency string
	CapturedAt     time.Time
}

func NewExchangeSnapshot(rate float64, base, target string, capturedAt time.Time) (ExchangeSnapshot, error) {
	if rate <= 0 {
		return ExchangeSnapshot{}, ErrInvalidExchangeRate
	}
	return ExchangeSnapshot{
		Rate:           rate,
		BaseCurrency:   strings.ToLower(base),
		TargetCurrency: strings.ToLower(target),
		CapturedAt:     capturedAt,
	}, nil
}
