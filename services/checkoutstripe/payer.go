package checkoutstripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
)

//go:generate mockgen -source=payer.go -package checkoutstripe -destination payer_mock.go Payer
type Payer interface {
	CreateCheckoutSession(c context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error)
}

type stripePayer struct {
	sc *client.API
}

// NewPayer talks to stripe with its own client instead of the package level stripe.Key
func NewPayer(apiKey string, httpClient *http.Client) *stripePayer {
	return newPayerWithBackends(apiKey, stripe.NewBackends(httpClient))
}

func newPayerWithBackends(apiKey string, backends *stripe.Backends) *stripePayer {
	return &stripePayer{
		sc: client.New(apiKey, backends),
	}
}

func (p *stripePayer) CreateCheckoutSession(c context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error) {
	params.Context = c
	session, err := p.sc.CheckoutSessions.New(&params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return stripe.CheckoutSession{}, myerrors.NewUpstreamError(fmt.Errorf("error creating stripe session: %s", stripeErr.Msg))
		}
		return stripe.CheckoutSession{}, myerrors.NewUpstreamError(fmt.Errorf("error creating stripe session: %s", err))
	}

	return *session, nil
}
