package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/ordermailer/lib/myconfig"
	"github.com/MarcGrol/ordermailer/lib/myhttpclient"
	"github.com/MarcGrol/ordermailer/lib/mylog"
	"github.com/MarcGrol/ordermailer/lib/mypublisher"
	"github.com/MarcGrol/ordermailer/lib/mypubsub"
	"github.com/MarcGrol/ordermailer/lib/mystore"
	"github.com/MarcGrol/ordermailer/lib/mytime"
	"github.com/MarcGrol/ordermailer/lib/myuuid"
	"github.com/MarcGrol/ordermailer/services/checkoutstripe"
	"github.com/MarcGrol/ordermailer/services/health"
	"github.com/MarcGrol/ordermailer/services/ordermail"
)

const (
	shutdownTimeout = 30 * time.Second
	stripeTimeout   = 80 * time.Second
)

func main() {
	c := context.Background()
	defer mylog.Sync()

	cfg, err := myconfig.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	router := mux.NewRouter()

	dispatcher, cleanup := createServices(c, cfg, router)
	defer cleanup()

	startWebServerBlocking(c, cfg.Port, router, dispatcher)
}

func createServices(c context.Context, cfg myconfig.Config, router *mux.Router) (*ordermail.Dispatcher, func()) {
	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	publisher := mypublisher.New(pubsub, nower)

	composer, err := ordermail.NewComposer(cfg.ShopName, cfg.Currency)
	if err != nil {
		log.Fatalf("Error creating email composer: %s", err)
	}
	sender := ordermail.NewSMTPSender(ordermail.SMTPSettings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		To:       cfg.MailTo,
	}, uuider)
	dispatcher := ordermail.NewDispatcher(composer, sender, publisher, nower, cfg.MailTo)

	mailService := ordermail.NewWebService(dispatcher, sender, publisher, uuider, cfg.DebugEndpoints)
	err = mailService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering order mail endpoints: %s", err)
	}

	eventStore, eventStoreCleanup, err := mystore.New[checkoutstripe.ProcessedEvent](c)
	if err != nil {
		log.Fatalf("Error creating webhook event store: %s", err)
	}

	checkoutService, err := checkoutstripe.NewWebService(checkoutstripe.Settings{
		Currency:   cfg.Currency,
		SuccessURL: cfg.SuccessURL,
		CancelURL:  cfg.CancelURL,
	}, checkoutstripe.NewPayer(cfg.StripeSecretKey, myhttpclient.New(mylog.New("stripe"), stripeTimeout)), checkoutstripe.NewVerifier(cfg.StripeWebhookSecret),
		nower, uuider, eventStore, dispatcher)
	if err != nil {
		log.Fatalf("Error creating checkout service: %s", err)
	}
	err = checkoutService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout endpoints: %s", err)
	}

	err = health.NewWebService(nower).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering health endpoints: %s", err)
	}

	return dispatcher, func() {
		eventStoreCleanup()
		pubsubCleanup()
	}
}

func startWebServerBlocking(c context.Context, port string, router *mux.Router, dispatcher *ordermail.Dispatcher) {
	logger := mylog.New("main")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Log(c, "", mylog.SeverityInfo, "Starting webserver on port %s (try http://localhost:%s/test)", port, port)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting webserver on port %s: %s", port, err)
		}
	}()

	sig := <-stop
	logger.Log(c, "", mylog.SeverityInfo, "Received %s, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(c, shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		logger.Log(c, "", mylog.SeverityError, "Error shutting down webserver: %s", err)
	}

	// Confirmations triggered by webhooks that were already acknowledged
	err = dispatcher.Wait(shutdownCtx)
	if err != nil {
		logger.Log(c, "", mylog.SeverityError, "Gave up waiting for pending confirmations: %s", err)
	}

	logger.Log(c, "", mylog.SeverityInfo, "Shutdown complete")
}
