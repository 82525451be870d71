package models

// Event types relayed to websocket clients.
const (
	EventPaymentSucceeded = "payment_succeeded"
	EventRefundIssued     = "refund_issued"
)

// Event is the decoded representation of one payment occurrence. Amount is
// in the minor unit of Currency (cents for usd). Events are not persisted;
// they exist only between webhook receipt and broadcast.
type Event struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
