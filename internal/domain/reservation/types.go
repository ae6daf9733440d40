package reservation

type Status string

const (
	StatusOpen                 Status = "open"
	StatusProcessing           Status = "processing"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusComplete             Status = "complete"
	StatusCancelled            Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusProcessing, StatusAwaitingConfirmation, StatusComplete, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}

type HostDecision string

const (
	HostDecisionApproved HostDecision = "approved"
	HostDecisionRejected HostDecision = "rejected"
)

func (d HostDecision) IsValid() bool {
	return d == HostDecisionApproved || d == HostDecisionRejected
}

func (d HostDecision) String() string {
	return string(d)
}

type CancelledBy string

const (
	CancelledByGuest  CancelledBy = "guest"
	CancelledByHost   CancelledBy = "host"
	CancelledBySystem CancelledBy = "system"
)

func (c CancelledBy) IsValid() bool {
	switch c {
	case CancelledByGuest, CancelledByHost, CancelledBySystem:
		return true
	default:
		return false
	}
}

func (c CancelledBy) String() string {
	return string(c)
}
