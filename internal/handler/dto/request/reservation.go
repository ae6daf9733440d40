package request

import (
	"strings"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errs.New("date must be formatted as YYYY-MM-DD")

type CreateReservationRequest struct {
	CheckInDate  string  `json:"check_in_date" binding:"required"`
	CheckOutDate string  `json:"check_out_date" binding:"required"`
	PartySize    int     `json:"party_size" binding:"required,min=1"`
	PromoCode    *string `json:"promo_code,omitempty"`
	Currency     string  `json:"currency,omitempty"`
}

func (r CreateReservationRequest) ToInput() (commands.CreateReservationInput, error) {
	checkIn, checkOut, err := parseDates(r.CheckInDate, r.CheckOutDate)
	if err != nil {
		return commands.CreateReservationInput{}, err
	}
	return commands.CreateReservationInput{
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		PartySize: r.PartySize,
		PromoCode: trimPtr(r.PromoCode),
		Currency:  strings.ToLower(strings.TrimSpace(r.Currency)),
	}, nil
}

type SelfBlockRequest struct {
	CheckInDate  string `json:"check_in_date" binding:"required"`
	CheckOutDate string `json:"check_out_date" binding:"required"`
}

func (r SelfBlockRequest) ToInput() (commands.SelfBlockInput, error) {
	checkIn, checkOut, err := parseDates(r.CheckInDate, r.CheckOutDate)
	if err != nil {
		return commands.SelfBlockInput{}, err
	}
	return commands.SelfBlockInput{CheckIn: checkIn, CheckOut: checkOut}, nil
}

type HostDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Reason   string `json:"reason,omitempty"`
}

func (r HostDecisionRequest) ToInput() commands.HostDecisionInput {
	return commands.HostDecisionInput{
		Decision: reservation.HostDecision(r.Decision),
		Reason:   strings.TrimSpace(r.Reason),
	}
}

type CancelReservationRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (r CancelReservationRequest) GetReason() *string {
	return trimPtr(r.Reason)
}

func parseDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.ParseInLocation(dateLayout, checkIn, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	out, err := time.ParseInLocation(dateLayout, checkOut, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	return in, out, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
