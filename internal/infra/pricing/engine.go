package pricing

import (
	"math"
	"strings"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"
)

var ErrUnknownPromoCode = errs.New("unknown promo code")

// Fee and discount rates in basis points.
const (
	weeklyDiscountBps  = 500  // 7+ nights
	monthlyDiscountBps = 1500 // 28+ nights
	serviceFeeBps      = 1200
	taxBps             = 800
	platformFeeBps     = 300
)

// Promo codes and FX rates are static tables here; a real deployment
// would source both from their owning services.
var promoDiscountBps = map[string]int64{
	"WELCOME10": 1000,
	"SPRING5":   500,
}

var usdRates = map[string]float64{
	"usd": 1.0,
	"eur": 0.92,
	"gbp": 0.79,
	"jpy": 147.0,
	"inr": 83.2,
	"aud": 1.52,
}

// Engine is the default quote calculator: nightly rate times nights, a
// length-of-stay discount, an optional promo discount, then fees and
// taxes on the discounted subtotal.
type Engine struct {
	clock clock.Clock
}

func NewEngine(clk clock.Clock) *Engine {
	return &Engine{clock: clk}
}

func (e *Engine) Quote(property *shared.PropertySnapshot, dateRange reservation.DateRange, partySize reservation.PartySize, promoCode *string, targetCurrency string) (billing.PriceBreakdown, error) {
	nights := dateRange.Nights()
	target := strings.ToLower(targetCurrency)
	if target == "" {
		target = strings.ToLower(property.Currency)
	}

	exchange, err := e.snapshot(strings.ToLower(property.Currency), target)
	if err != nil {
		return billing.PriceBreakdown{}, err
	}

	nightlyRate := convert(property.NightlyRate, exchange.Rate)
	cleaningFee := convert(property.CleaningFee, exchange.Rate)
	baseTotal := nightlyRate * int64(nights)

	var losOff int64
	switch {
	case nights >= 28:
		losOff = applyBps(baseTotal, monthlyDiscountBps)
	case nights >= 7:
		losOff = applyBps(baseTotal, weeklyDiscountBps)
	}

	var promoOff int64
	if promoCode != nil && *promoCode != "" {
		bps, ok := promoDiscountBps[strings.ToUpper(*promoCode)]
		if !ok {
			return billing.PriceBreakdown{}, ErrUnknownPromoCode
		}
		promoOff = applyBps(baseTotal-losOff, bps)
	}

	subtotal := baseTotal - losOff - promoOff + cleaningFee
	serviceFee := applyBps(subtotal, serviceFeeBps)
	taxAmount := applyBps(subtotal+serviceFee, taxBps)
	platformFee := applyBps(subtotal, platformFeeBps)

	return billing.PriceBreakdown{
		NightlyRate:     nightlyRate,
		Nights:          nights,
		BaseTotal:       baseTotal,
		LengthOfStayOff: losOff,
		PromoOff:        promoOff,
		CleaningFee:     cleaningFee,
		ServiceFee:      serviceFee,
		TaxAmount:       taxAmount,
		PlatformFee:     platformFee,
		Total:           subtotal + serviceFee + taxAmount + platformFee,
		Currency:        target,
		Exchange:        exchange,
	}, nil
}

func (e *Engine) snapshot(base, target string) (billing.ExchangeSnapshot, error) {
	if base == target {
		return billing.NewExchangeSnapshot(1.0, base, target, e.clock.Now())
	}

	baseRate, ok := usdRates[base]
	if !ok {
		return billing.ExchangeSnapshot{}, errs.New("unsupported base currency: " + base)
	}
	targetRate, ok := usdRates[target]
	if !ok {
		return billing.ExchangeSnapshot{}, errs.New("unsupported target currency: " + target)
	}

	return billing.NewExchangeSnapshot(targetRate/baseRate, base, target, e.clock.Now())
}

func convert(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}

func applyBps(amount, bps int64) int64 {
	return amount * bps / 10_000
}

var _ commands.PricingEngine = (*Engine)(nil)
