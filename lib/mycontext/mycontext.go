package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

// CtxTraceContext is a context key for the trace context (used by mylog)
type CtxTraceContext struct{}

// CtxRequestID is a context key for the id that is echoed in the X-Request-Id response header
type CtxRequestID struct{}

const RequestIDHeader = "X-Request-Id"

func ContextFromHTTPRequest(r *http.Request) context.Context {
	var trace string

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	traceContext := r.Header.Get("X-Cloud-Trace-Context")
	traceParts := strings.Split(traceContext, "/")

	if len(traceParts) > 0 && len(traceParts[0]) > 0 {
		trace = fmt.Sprintf("projects/%s/traces/%s", projectID, traceParts[0])
	}

	requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.New().String()
	}

	// Derived from the request so that a client disconnect cancels outbound calls
	ctx := context.WithValue(r.Context(), CtxTraceContext{}, trace)
	ctx = context.WithValue(ctx, CtxRequestID{}, requestID)

	return ctx
}

func TraceFromContext(c context.Context) string {
	trace, _ := c.Value(CtxTraceContext{}).(string)
	return trace
}

func RequestIDFromContext(c context.Context) string {
	id, _ := c.Value(CtxRequestID{}).(string)
	return id
}

// Detached keeps the trace and request id but survives cancellation of the originating request.
func Detached(c context.Context) context.Context {
	return context.WithoutCancel(c)
}
