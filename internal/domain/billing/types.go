package billing

type TransactionType string

const (
	TransactionPayment TransactionType = "PAYMENT"
	TransactionRefund  TransactionType = "REFUND"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionPayment || t == TransactionRefund
}

func (t TransactionType) String() string {
	return string(t)
}

type PaymentStatus string

const (
	PaymentStatusOpen       PaymentStatus = "open"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusOpen, PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) String() string {
	return string(s)
}
