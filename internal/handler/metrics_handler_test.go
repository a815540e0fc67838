package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerStub struct {
	err error
}

func (s pingerStub) PingContext(_ context.Context) error {
	return s.err
}

func performReady(t *testing.T, handler *MetricsHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req, err := http.NewRequest(http.MethodGet, "/ready", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Ready(c)
	return w
}

func TestReadyReportsReadyWhenDatabaseResponds(t *testing.T) {
	handler := NewMetricsHandler(nil, pingerStub{})

	w := performReady(t, handler)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
}

func TestReadyReportsUnavailableWhenPingFails(t *testing.T) {
	handler := NewMetricsHandler(nil, pingerStub{err: errors.New("connection refused")})

	w := performReady(t, handler)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyReportsUnavailableWithoutDatabase(t *testing.T) {
	handler := NewMetricsHandler(nil, nil)

	w := performReady(t, handler)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
