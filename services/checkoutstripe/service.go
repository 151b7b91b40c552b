package checkoutstripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v74"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
	"github.com/MarcGrol/ordermailer/lib/mylog"
	"github.com/MarcGrol/ordermailer/lib/mystore"
	"github.com/MarcGrol/ordermailer/lib/mytime"
	"github.com/MarcGrol/ordermailer/lib/myuuid"
	"github.com/MarcGrol/ordermailer/services/checkoutapi"
)

const eventCheckoutSessionCompleted = "checkout.session.completed"

type service struct {
	logger     mylog.Logger
	settings   Settings
	payer      Payer
	verifier   *Verifier
	nower      mytime.Nower
	uuider     myuuid.UUIDer
	eventStore mystore.Store[ProcessedEvent]
	notifier   Notifier
}

func newService(logger mylog.Logger, settings Settings, payer Payer, verifier *Verifier, nower mytime.Nower, uuider myuuid.UUIDer,
	eventStore mystore.Store[ProcessedEvent], notifier Notifier) (*service, error) {
	if settings.Currency == "" {
		return nil, fmt.Errorf("missing settlement currency")
	}
	return &service{
		logger:     logger,
		settings:   settings,
		payer:      payer,
		verifier:   verifier,
		nower:      nower,
		uuider:     uuider,
		eventStore: eventStore,
		notifier:   notifier,
	}, nil
}

// createCheckout validates the cart and asks stripe for a hosted checkout page
func (s *service) createCheckout(c context.Context, baseURL string, raw checkoutapi.RawOrder) (CheckoutResponse, error) {
	orderUID := s.uuider.Create()

	order, err := checkoutapi.Normalize(raw, orderUID)
	if err != nil {
		return CheckoutResponse{}, err
	}

	confirmation := ConfirmationWebhook
	metadata, err := checkoutapi.EncodeMetadata(order)
	if err != nil {
		if !errors.Is(err, checkoutapi.ErrPayloadTooLarge) {
			return CheckoutResponse{}, err
		}
		s.logger.Log(c, orderUID, mylog.SeverityWarn, "Order %s with %d items is confirmed directly: %s", orderUID, len(order.Items), err)
		metadata = checkoutapi.DirectDeliveryMetadata(orderUID)
		confirmation = ConfirmationDirect
	}

	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Start checkout for order %s (%d items, total %s %s)",
		orderUID, len(order.Items), order.Total().StringFixed(2), s.settings.Currency)

	session, err := s.payer.CreateCheckoutSession(c, s.sessionParams(baseURL, order, metadata))
	if err != nil {
		return CheckoutResponse{}, err
	}

	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Created checkout session %s for order %s", session.ID, orderUID)

	return CheckoutResponse{
		URL:          session.URL,
		SessionID:    session.ID,
		OrderUID:     orderUID,
		Confirmation: confirmation,
	}, nil
}

func (s *service) sessionParams(baseURL string, order checkoutapi.Order, metadata map[string]string) stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, item := range order.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if description := productDescription(item); description != "" {
			productData.Description = stripe.String(description)
		}
		if isAbsoluteURL(item.Image) {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.settings.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(UnitAmount(item)),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	successURL := s.settings.SuccessURL
	if successURL == "" {
		successURL = baseURL + "/success.html"
	}
	cancelURL := s.settings.CancelURL
	if cancelURL == "" {
		cancelURL = baseURL + "/cancel.html"
	}

	return stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Metadata: metadata,
		},
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		ClientReferenceID:  stripe.String(order.UID),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:      stripe.String(order.Customer.Email),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
}

// UnitAmount converts the price to minor units, rounding half away from zero.
func UnitAmount(item checkoutapi.CartItem) int64 {
	return item.Price.Shift(2).Round(0).IntPart()
}

func productDescription(item checkoutapi.CartItem) string {
	if item.Description != "" {
		return item.Description
	}
	parts := []string{}
	if item.Size != "" {
		parts = append(parts, "Size "+item.Size)
	}
	if item.PlayerName != "" || item.PlayerNumber != "" {
		parts = append(parts, strings.TrimSpace(item.PlayerName+" "+item.PlayerNumber))
	}
	return strings.Join(parts, " - ")
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// handleWebhook returns an error only when stripe should deliver the event again
func (s *service) handleWebhook(c context.Context, payload []byte, signature string) error {
	event, err := s.verifier.Verify(payload, signature)
	if err != nil {
		return err
	}

	eventType := string(event.Type)
	s.logger.Log(c, event.ID, mylog.SeverityInfo, "Received webhook event %s of type %s", event.ID, eventType)

	if eventType != eventCheckoutSessionCompleted {
		s.logger.Log(c, event.ID, mylog.SeverityDebug, "Ignoring event %s of type %s", event.ID, eventType)
		return nil
	}

	if event.Data == nil {
		s.logger.Log(c, event.ID, mylog.SeverityError, "Event %s carries no session", event.ID)
		return nil
	}
	session := stripe.CheckoutSession{}
	err = json.Unmarshal(event.Data.Raw, &session)
	if err != nil {
		s.logger.Log(c, event.ID, mylog.SeverityError, "Error parsing session of event %s: %s", event.ID, err)
		return nil
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid &&
		session.PaymentStatus != stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
		s.logger.Log(c, session.ID, mylog.SeverityWarn, "Session %s completed with payment status %s: no confirmation sent",
			session.ID, session.PaymentStatus)
		return nil
	}

	claimed, err := s.claimEvent(c, event.ID, eventType, session.ID)
	if err != nil {
		return myerrors.NewUnavailableError(fmt.Errorf("error recording event %s: %s", event.ID, err))
	}
	if !claimed {
		s.logger.Log(c, event.ID, mylog.SeverityInfo, "Event %s for session %s was already processed", event.ID, session.ID)
		return nil
	}

	if checkoutapi.IsDirectDelivery(session.Metadata) {
		s.logger.Log(c, session.ID, mylog.SeverityInfo, "Session %s is confirmed by the storefront directly", session.ID)
		return nil
	}

	order, err := checkoutapi.DecodeMetadata(session.Metadata)
	if err != nil {
		s.logger.Log(c, session.ID, mylog.SeverityError, "Error reading order of session %s: %s", session.ID, err)
		return nil
	}
	if order.UID == "" {
		order.UID = session.ClientReferenceID
	}
	if order.UID == "" {
		order.UID = session.ID
	}

	s.notifier.NotifyPaid(c, order, session.ID)

	return nil
}

func (s *service) claimEvent(c context.Context, eventID, eventType, sessionID string) (bool, error) {
	claimed := false
	err := s.eventStore.RunInTransaction(c, func(c context.Context) error {
		claimed = false

		_, found, err := s.eventStore.Get(c, eventID)
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		err = s.eventStore.Put(c, eventID, ProcessedEvent{
			EventID:    eventID,
			EventType:  eventType,
			SessionID:  sessionID,
			ReceivedAt: s.nower.Now(),
		})
		if err != nil {
			return err
		}
		claimed = true
		return nil
	})
	return claimed, err
}
