package checkoutstripe

import (
	"context"

	"github.com/MarcGrol/ordermailer/services/checkoutapi"
)

// Notifier sends the confirmation of a paid order without holding up the webhook response.
//
//go:generate mockgen -source=notifier.go -package checkoutstripe -destination notifier_mock.go Notifier
type Notifier interface {
	NotifyPaid(c context.Context, order checkoutapi.Order, sessionID string)
}
