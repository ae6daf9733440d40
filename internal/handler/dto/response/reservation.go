package response

import (
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/queries"

	"github.com/google/uuid"
)

type CreateReservationResponse struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	BillingID     uuid.UUID `json:"billing_id"`
	PaymentLink   string    `json:"payment_link"`
	TotalPrice    int64     `json:"total_price"`
	Currency      string    `json:"currency"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func FromCreateResult(result *commands.CreateReservationResult) *CreateReservationResponse {
	return &CreateReservationResponse{
		ReservationID: result.ReservationID,
		BillingID:     result.BillingID,
		PaymentLink:   result.SessionURL,
		TotalPrice:    result.TotalPrice,
		Currency:      result.Currency,
		ExpiresAt:     result.ExpiresAt,
	}
}

type SelfBlockResponse struct {
	ReservationID uuid.UUID `json:"reservation_id"`
}

type PaymentLinkResponse struct {
	PaymentLink string `json:"payment_link"`
}

type ReservationResponse struct {
	ID               uuid.UUID  `json:"id"`
	PropertyID       uuid.UUID  `json:"property_id"`
	PropertyTitle    string     `json:"property_title"`
	HostID           uuid.UUID  `json:"host_id"`
	UserID           uuid.UUID  `json:"user_id"`
	CheckInDate      string     `json:"check_in_date"`
	CheckOutDate     string     `json:"check_out_date"`
	PartySize        int        `json:"party_size"`
	Status           string     `json:"status"`
	IsSelfBooked     bool       `json:"is_self_booked"`
	IsInstantBooking bool       `json:"is_instant_booking"`
	HostDecision     *string    `json:"host_decision,omitempty"`
	CancelledBy      *string    `json:"cancelled_by,omitempty"`
	CancelReason     *string    `json:"cancel_reason,omitempty"`
	PaymentLink      *string    `json:"payment_link,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	HostDecisionAt   *time.Time `json:"host_decision_at,omitempty"`
	TotalPrice       *int64     `json:"total_price,omitempty"`
	TotalAmountPaid  *int64     `json:"total_amount_paid,omitempty"`
	TotalRefunded    *int64     `json:"total_refunded,omitempty"`
	RemainingAmount  *int64     `json:"remaining_amount,omitempty"`
	HasRefunds       *bool      `json:"has_refunds,omitempty"`
	Currency         *string    `json:"currency,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ReservationListResponse struct {
	ID            uuid.UUID `json:"id"`
	PropertyID    uuid.UUID `json:"property_id"`
	PropertyTitle string    `json:"property_title"`
	CheckInDate   string    `json:"check_in_date"`
	CheckOutDate  string    `json:"check_out_date"`
	Status        string    `json:"status"`
	TotalPrice    *int64    `json:"total_price,omitempty"`
	Currency      *string   `json:"currency,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

const dateLayout = "2006-01-02"

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:               view.ID,
		PropertyID:       view.PropertyID,
		PropertyTitle:    view.PropertyTitle,
		HostID:           view.HostID,
		UserID:           view.UserID,
		CheckInDate:      view.CheckInDate.Format(dateLayout),
		CheckOutDate:     view.CheckOutDate.Format(dateLayout),
		PartySize:        view.PartySize,
		Status:           view.Status,
		IsSelfBooked:     view.IsSelfBooked,
		IsInstantBooking: view.IsInstantBooking,
		HostDecision:     view.HostDecision,
		CancelledBy:      view.CancelledBy,
		CancelReason:     view.CancelReason,
		PaymentLink:      view.PaymentLink,
		ExpiresAt:        view.ExpiresAt,
		ConfirmedAt:      view.ConfirmedAt,
		CancelledAt:      view.CancelledAt,
		HostDecisionAt:   view.HostDecisionAt,
		TotalPrice:       view.TotalPrice,
		TotalAmountPaid:  view.TotalAmountPaid,
		TotalRefunded:    view.TotalRefunded,
		RemainingAmount:  view.RemainingAmount,
		HasRefunds:       view.HasRefunds,
		Currency:         view.Currency,
		CreatedAt:        view.CreatedAt,
		UpdatedAt:        view.UpdatedAt,
	}
}

func FromReservationListItem(item *queries.ReservationListItem) *ReservationListResponse {
	return &ReservationListResponse{
		ID:            item.ID,
		PropertyID:    item.PropertyID,
		PropertyTitle: item.PropertyTitle,
		CheckInDate:   item.CheckInDate.Format(dateLayout),
		CheckOutDate:  item.CheckOutDate.Format(dateLayout),
		Status:        item.Status,
		TotalPrice:    item.TotalPrice,
		Currency:      item.Currency,
		CreatedAt:     item.CreatedAt,
	}
}
