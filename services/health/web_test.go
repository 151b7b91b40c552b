package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/ordermailer/lib/mytime"
)

func TestLiveness(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	nower := mytime.NewMockNower(ctrl)
	router := mux.NewRouter()
	err := NewWebService(nower).RegisterEndpoints(context.TODO(), router)
	require.NoError(t, err)

	// given
	nower.EXPECT().Now().Return(mytime.ExampleTime)

	// when
	request, err := http.NewRequest(http.MethodGet, "/test", nil)
	require.NoError(t, err)
	request.Header.Set("X-Request-Id", "req-1")
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "req-1", response.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"message":"Backend is running","timestamp":"2023-02-27T23:58:59Z"}`, response.Body.String())
}

func TestWarmup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	router := mux.NewRouter()
	err := NewWebService(mytime.NewMockNower(ctrl)).RegisterEndpoints(context.TODO(), router)
	require.NoError(t, err)

	// when
	request, err := http.NewRequest(http.MethodGet, "/_ah/warmup", nil)
	require.NoError(t, err)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"success":true,"message":"Successfully processed warmup request"}`, response.Body.String())
}
