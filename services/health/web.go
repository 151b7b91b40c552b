package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/ordermailer/lib/mycontext"
	"github.com/MarcGrol/ordermailer/lib/myhttp"
	"github.com/MarcGrol/ordermailer/lib/mylog"
	"github.com/MarcGrol/ordermailer/lib/mytime"
)

type Response struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type webService struct {
	logger mylog.Logger
	nower  mytime.Nower
}

func NewWebService(nower mytime.Nower) *webService {
	return &webService{
		logger: mylog.New("health"),
		nower:  nower,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/test", s.livenessPage()).Methods("GET")
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")

	return nil
}

func (s *webService) livenessPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		writer.Write(c, w, http.StatusOK, Response{
			Message:   "Backend is running",
			Timestamp: s.nower.Now().UTC().Format(time.RFC3339),
		})
	}
}

// warmupPage is called by App Engine before an instance receives traffic
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		writer.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Success: true,
			Message: "Successfully processed warmup request",
		})
	}
}
