package myhttp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MarcGrol/ordermailer/lib/mycontext"
	"github.com/MarcGrol/ordermailer/lib/myerrors"
	"github.com/MarcGrol/ordermailer/lib/mylog"
)

type ResponseWriter interface {
	WriteError(c context.Context, w http.ResponseWriter, errorCode int, err error)
	Write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{})
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	ErrorCode int    `json:"errorCode"`
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func NewWriter(logger mylog.Logger) ResponseWriter {
	return &responseWriter{
		logger: logger,
	}
}

type responseWriter struct {
	logger mylog.Logger
}

func (rw responseWriter) WriteError(c context.Context, w http.ResponseWriter, errorCode int, err error) {
	httpStatus := myerrors.GetHTTPStatus(err)
	severity := mylog.SeverityWarn
	if httpStatus >= http.StatusInternalServerError {
		severity = mylog.SeverityError
	}
	rw.logger.Log(c, "", severity, "Error response: http-status:%d, error-code:%d, error-msg:%s", httpStatus, errorCode, err)
	rw.write(c, w, httpStatus, ErrorResponse{
		Success:   false,
		ErrorCode: errorCode,
		Error:     myerrors.GetMessage(err),
	})
}

func (rw responseWriter) Write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{}) {
	rw.logger.Log(c, "", mylog.SeverityInfo, "Success response: http-status:%d", httpStatus)
	rw.write(c, w, httpStatus, resp)
}

func (rw responseWriter) write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if requestID := mycontext.RequestIDFromContext(c); requestID != "" {
		w.Header().Set(mycontext.RequestIDHeader, requestID)
	}
	w.WriteHeader(httpStatus)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "\t")
	err := encoder.Encode(resp)
	if err != nil {
		rw.logger.Log(c, "", mylog.SeverityError, "Error writing response: %s", err)
		return
	}
}
