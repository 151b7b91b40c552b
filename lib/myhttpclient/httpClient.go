package myhttpclient

import (
	"net/http"
	"time"

	"github.com/MarcGrol/ordermailer/lib/mylog"
)

// New returns a client that logs every outbound call with its status and duration.
func New(logger mylog.Logger, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			logger: logger,
			next:   http.DefaultTransport,
		},
	}
}

type loggingTransport struct {
	logger mylog.Logger
	next   http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c := req.Context()
	started := time.Now()

	// Query strings are left out, they may carry credentials
	target := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Log(c, "", mylog.SeverityWarn, "HTTP %s %s failed after %s: %s", req.Method, target, time.Since(started), err)
		return nil, err
	}

	severity := mylog.SeverityInfo
	if resp.StatusCode >= http.StatusInternalServerError {
		severity = mylog.SeverityWarn
	}
	t.logger.Log(c, "", severity, "HTTP %s %s: %d in %s", req.Method, target, resp.StatusCode, time.Since(started))

	return resp, nil
}
