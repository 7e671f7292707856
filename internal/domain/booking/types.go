package booking

// Status is the booking lifecycle state. Non-terminal states count against
// resource availability; completed and cancelled do not.
type Status string

const (
	StatusRequested      Status = "requested"
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusPendingPayment, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var transitions = map[Status][]Status{
	StatusRequested:      {StatusPendingPayment, StatusConfirmed, StatusCancelled},
	StatusPendingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// CanTransition reports whether the state machine allows moving from s to
// next. Guards on top of this table live in the transition methods.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CancelReason records why a booking left the active path.
type CancelReason string

const (
	CancelByCustomer     CancelReason = "customer"
	CancelByAdmin        CancelReason = "admin"
	CancelPaymentTimeout CancelReason = "payment_timeout"
	CancelPaymentFailed  CancelReason = "payment_failed"
	CancelNoShow         CancelReason = "no_show"
)
