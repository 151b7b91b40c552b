package checkoutstripe

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
)

const SignatureHeader = "Stripe-Signature"

var ErrSignatureInvalid = errors.New("webhook signature invalid")

type Verifier struct {
	secret  string
	options webhook.ConstructEventOptions
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: secret,
		options: webhook.ConstructEventOptions{
			Tolerance: webhook.DefaultTolerance,
			// Events are parsed into the session fields we need, whatever api version the account uses
			IgnoreAPIVersionMismatch: true,
		},
	}
}

// Verify checks the signature over the untouched request body before anything in it is trusted.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, myerrors.NewInvalidInputError(fmt.Errorf("%w: no webhook secret configured", ErrSignatureInvalid))
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, v.options)
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) ||
			errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrTooOld) {
			return stripe.Event{}, myerrors.NewInvalidInputError(fmt.Errorf("%w: %s", ErrSignatureInvalid, err))
		}
		return stripe.Event{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing webhook event: %s", err))
	}

	return event, nil
}
