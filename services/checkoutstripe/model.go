package checkoutstripe

import "time"

const (
	ConfirmationWebhook = "webhook"
	ConfirmationDirect  = "direct"
)

// Settings are the fixed parts of every checkout session.
type Settings struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type CheckoutResponse struct {
	URL          string `json:"url"`
	SessionID    string `json:"sessionId"`
	OrderUID     string `json:"orderUid"`
	Confirmation string `json:"confirmation"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

// ProcessedEvent records a webhook event that has been handled, keyed by stripe event id.
type ProcessedEvent struct {
	EventID    string
	EventType  string
	SessionID  string
	ReceivedAt time.Time
}
