package ordermail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/ordermailer/lib/mycontext"
	"github.com/MarcGrol/ordermailer/lib/myerrors"
	"github.com/MarcGrol/ordermailer/lib/myhttp"
	"github.com/MarcGrol/ordermailer/lib/mylog"
	"github.com/MarcGrol/ordermailer/lib/mypublisher"
	"github.com/MarcGrol/ordermailer/lib/myuuid"
	"github.com/MarcGrol/ordermailer/services/checkoutapi"
	"github.com/MarcGrol/ordermailer/services/orderevents"
)

const maxRequestBodySize = 1 << 20

type SendOrderEmailRequest struct {
	checkoutapi.RawOrder
	SessionID string `json:"sessionId,omitempty"`
	Source    string `json:"source,omitempty"`
}

type SendOrderEmailResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Recipient string `json:"recipient"`
	Source    string `json:"source"`
}

const defaultSource = "direct"

type TestEmailResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

type webService struct {
	logger         mylog.Logger
	dispatcher     *Dispatcher
	sender         Sender
	publisher      mypublisher.Publisher
	uuider         myuuid.UUIDer
	debugEndpoints bool
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(dispatcher *Dispatcher, sender Sender, publisher mypublisher.Publisher, uuider myuuid.UUIDer, debugEndpoints bool) *webService {
	return &webService{
		logger:         mylog.New("ordermail"),
		dispatcher:     dispatcher,
		sender:         sender,
		publisher:      publisher,
		uuider:         uuider,
		debugEndpoints: debugEndpoints,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	err := s.publisher.CreateTopic(c, orderevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", orderevents.TopicName, err)
	}

	router.HandleFunc("/send-order-email", s.sendOrderEmail()).Methods("POST")
	if s.debugEndpoints {
		router.HandleFunc("/test-email-direct", s.testEmailDirect()).Methods("POST")
	}

	return nil
}

func (s *webService) sendOrderEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := SendOrderEmailRequest{}
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				errorWriter.WriteError(c, w, 1, myerrors.NewPayloadTooLargeError(err))
				return
			}
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		order, err := checkoutapi.Normalize(req.RawOrder, s.uuider.Create())
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		s.logger.Log(c, order.UID, mylog.SeverityInfo, "Direct confirmation of order %s requested by %q (session %q)", order.UID, req.Source, req.SessionID)

		result := s.dispatcher.Dispatch(c, Request{
			Order:     order,
			SessionID: req.SessionID,
			Mode:      ModeDirect,
		})
		if !result.Success {
			errorWriter.Write(c, w, http.StatusInternalServerError, myhttp.ErrorResponse{
				Success:   false,
				ErrorCode: 3,
				Error:     "Failed to send email",
				Details:   result.Error,
			})
			return
		}

		source := strings.TrimSpace(req.Source)
		if source == "" {
			source = defaultSource
		}

		// recipient echoes the customer the order belongs to, the mail itself goes to the shop
		errorWriter.Write(c, w, http.StatusOK, SendOrderEmailResponse{
			Success:   true,
			Message:   "Email sent successfully",
			Recipient: order.Customer.Email,
			Source:    source,
		})
	}
}

// testEmailDirect checks the mail transport without an order
func (s *webService) testEmailDirect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		messageID, err := s.sender.Send(c, Message{
			Subject: "Test email",
			Text:    "If you can read this, the mail transport works.",
			HTML:    "<p>If you can read this, the mail transport works.</p>",
		})
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, TestEmailResponse{
			Success:   true,
			Message:   "Test email sent to " + s.dispatcher.Recipient(),
			MessageID: messageID,
		})
	}
}
