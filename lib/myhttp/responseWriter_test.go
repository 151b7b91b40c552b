package myhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/ordermailer/lib/mycontext"
	"github.com/MarcGrol/ordermailer/lib/myerrors"
	"github.com/MarcGrol/ordermailer/lib/mylog"
)

func TestResponseWriter(t *testing.T) {
	c := context.WithValue(context.Background(), mycontext.CtxRequestID{}, "req-1")
	sut := NewWriter(mylog.New("test"))

	t.Run("Error", func(t *testing.T) {
		response := httptest.NewRecorder()

		sut.WriteError(c, response, 3, myerrors.NewInvalidInputErrorf("missing customer.email"))

		assert.Equal(t, http.StatusBadRequest, response.Code)
		assert.Equal(t, "application/json", response.Header().Get("Content-Type"))
		assert.Equal(t, "req-1", response.Header().Get(mycontext.RequestIDHeader))
		resp := ErrorResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, ErrorResponse{Success: false, ErrorCode: 3, Error: "missing customer.email"}, resp)
	})

	t.Run("Unclassified error is internal", func(t *testing.T) {
		response := httptest.NewRecorder()

		sut.WriteError(c, response, 4, fmt.Errorf("boom"))

		assert.Equal(t, http.StatusInternalServerError, response.Code)
	})

	t.Run("Success", func(t *testing.T) {
		response := httptest.NewRecorder()

		sut.Write(c, response, http.StatusOK, SuccessResponse{Success: true, Message: "ok"})

		assert.Equal(t, http.StatusOK, response.Code)
		assert.JSONEq(t, `{"success":true,"message":"ok"}`, response.Body.String())
	})
}

func TestHostnameWithScheme(t *testing.T) {
	request, err := http.NewRequest(http.MethodGet, "/", nil)
	assert.NoError(t, err)
	request.Host = "localhost:4242"
	assert.Equal(t, "http://localhost:4242", HostnameWithScheme(request))

	request.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://localhost:4242", HostnameWithScheme(request))
}
