package ordermail

import (
	"context"
	"strings"
	"sync"

	"github.com/MarcGrol/ordermailer/lib/mycontext"
	"github.com/MarcGrol/ordermailer/lib/myerrors"
	"github.com/MarcGrol/ordermailer/lib/mylog"
	"github.com/MarcGrol/ordermailer/lib/mypublisher"
	"github.com/MarcGrol/ordermailer/lib/mytime"
	"github.com/MarcGrol/ordermailer/services/checkoutapi"
	"github.com/MarcGrol/ordermailer/services/orderevents"
)

const (
	ModeWebhook = "triggered-by-webhook"
	ModeDirect  = "direct"
)

type Request struct {
	Order     checkoutapi.Order
	SessionID string
	Mode      string
}

type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher composes and sends order confirmations. A failed send is reported, never retried.
type Dispatcher struct {
	logger    mylog.Logger
	composer  *Composer
	sender    Sender
	publisher mypublisher.Publisher
	nower     mytime.Nower
	recipient string
	inFlight  sync.WaitGroup
}

func NewDispatcher(composer *Composer, sender Sender, publisher mypublisher.Publisher, nower mytime.Nower, recipients []string) *Dispatcher {
	return &Dispatcher{
		logger:    mylog.New("ordermail"),
		composer:  composer,
		sender:    sender,
		publisher: publisher,
		nower:     nower,
		recipient: strings.Join(recipients, ", "),
	}
}

func (d *Dispatcher) Recipient() string {
	return d.recipient
}

func (d *Dispatcher) Dispatch(c context.Context, req Request) Result {
	result := d.send(c, req)

	err := d.publisher.Publish(c, orderevents.TopicName, orderevents.ConfirmationDispatched{
		OrderUID:  req.Order.UID,
		SessionID: req.SessionID,
		Mode:      req.Mode,
		Recipient: d.recipient,
		Success:   result.Success,
		MessageID: result.MessageID,
		Error:     result.Error,
	})
	if err != nil {
		d.logger.Log(c, req.Order.UID, mylog.SeverityWarn, "Error publishing dispatch of order %s: %s", req.Order.UID, err)
	}

	return result
}

func (d *Dispatcher) send(c context.Context, req Request) Result {
	msg, err := d.composer.Compose(req.Order, req.SessionID, d.nower.Now())
	if err != nil {
		d.logger.Log(c, req.Order.UID, mylog.SeverityError, "Error composing confirmation of order %s: %s", req.Order.UID, err)
		return Result{Success: false, Error: err.Error()}
	}

	messageID, err := d.sender.Send(c, msg)
	if err != nil {
		d.logger.Log(c, req.Order.UID, mylog.SeverityError, "Error sending confirmation of order %s (%s): %s", req.Order.UID, req.Mode, err)
		return Result{Success: false, Error: myerrors.GetMessage(err)}
	}

	d.logger.Log(c, req.Order.UID, mylog.SeverityInfo, "Sent confirmation %s of order %s (%s) to %s", messageID, req.Order.UID, req.Mode, d.recipient)
	return Result{Success: true, MessageID: messageID}
}

// DispatchAsync sends in the background, the request that triggered it may already be answered and cancelled.
func (d *Dispatcher) DispatchAsync(c context.Context, req Request) {
	detached := mycontext.Detached(c)
	d.inFlight.Add(1)
	go func() {
		defer d.inFlight.Done()
		d.Dispatch(detached, req)
	}()
}

func (d *Dispatcher) NotifyPaid(c context.Context, order checkoutapi.Order, sessionID string) {
	d.DispatchAsync(c, Request{
		Order:     order,
		SessionID: sessionID,
		Mode:      ModeWebhook,
	})
}

// Wait blocks until all background dispatches are done or c expires.
func (d *Dispatcher) Wait(c context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-c.Done():
		return c.Err()
	}
}
