package checkoutstripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/ordermailer/lib/mycontext"
	"github.com/MarcGrol/ordermailer/lib/myerrors"
	"github.com/MarcGrol/ordermailer/lib/myhttp"
	"github.com/MarcGrol/ordermailer/lib/mylog"
	"github.com/MarcGrol/ordermailer/lib/mystore"
	"github.com/MarcGrol/ordermailer/lib/mytime"
	"github.com/MarcGrol/ordermailer/lib/myuuid"
	"github.com/MarcGrol/ordermailer/services/checkoutapi"
)

const (
	maxCheckoutBodySize = 1 << 20
	maxWebhookBodySize  = 64 << 10
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(settings Settings, payer Payer, verifier *Verifier, nower mytime.Nower, uuider myuuid.UUIDer,
	eventStore mystore.Store[ProcessedEvent], notifier Notifier) (*webService, error) {
	logger := mylog.New("checkoutstripe")
	s, err := newService(logger, settings, payer, verifier, nower, uuider, eventStore, notifier)
	if err != nil {
		return nil, err
	}

	return &webService{
		logger:  logger,
		service: s,
	}, nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/create-checkout-session", s.createCheckoutSession()).Methods("POST")
	router.HandleFunc("/webhook", s.webhookNotification()).Methods("POST")

	return nil
}

func (s *webService) createCheckoutSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		raw, err := parseCheckoutRequest(w, r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.service.createCheckout(c, myhttp.HostnameWithScheme(r), raw)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) webhookNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		// The signature covers the exact bytes, so the body is never decoded before verification
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
		if err != nil {
			errorWriter.WriteError(c, w, 3, bodyError(err))
			return
		}

		err = s.service.handleWebhook(c, payload, r.Header.Get(SignatureHeader))
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, WebhookResponse{Received: true})
	}
}

func parseCheckoutRequest(w http.ResponseWriter, r *http.Request) (checkoutapi.RawOrder, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckoutBodySize)

	mediaType := "application/json"
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		parsed, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return checkoutapi.RawOrder{}, myerrors.NewUnsupportedMediaTypeError(fmt.Errorf("invalid content type %q: %s", contentType, err))
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/json":
		raw := checkoutapi.RawOrder{}
		err := json.NewDecoder(r.Body).Decode(&raw)
		if err != nil {
			return checkoutapi.RawOrder{}, bodyError(err)
		}
		return raw, nil
	case "application/x-www-form-urlencoded":
		err := r.ParseForm()
		if err != nil {
			return checkoutapi.RawOrder{}, bodyError(err)
		}
		return checkoutapi.DecodeForm(r.PostForm)
	default:
		return checkoutapi.RawOrder{}, myerrors.NewUnsupportedMediaTypeError(fmt.Errorf("unsupported content type %q", mediaType))
	}
}

func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return myerrors.NewPayloadTooLargeError(fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit))
	}
	return myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err))
}
