package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/cineops/showtime-api/internal/service"
)

func executeCommand(t *testing.T, handler *CommandHandler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req, err := http.NewRequest(http.MethodPost, "/commands", bytes.NewReader([]byte(payload)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Execute(c)
	return w
}

func TestCommandExecuteUnknownName(t *testing.T) {
	handler := NewCommandHandler(service.NewDispatcher(nil, nil, nil, nil, nil))

	w := executeCommand(t, handler, `{"name":"drop_database","arguments":{}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body["error"])
}

func TestCommandExecuteRequiresName(t *testing.T) {
	handler := NewCommandHandler(service.NewDispatcher(nil, nil, nil, nil, nil))

	w := executeCommand(t, handler, `{"arguments":{"booking_id":"b1"}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommandExecuteMalformedArguments(t *testing.T) {
	handler := NewCommandHandler(service.NewDispatcher(nil, nil, nil, nil, nil))

	w := executeCommand(t, handler, `{"name":"cancel_booking","arguments":{"booking_id":}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommandExecuteMissingRequiredArgument(t *testing.T) {
	handler := NewCommandHandler(service.NewDispatcher(nil, nil, nil, nil, nil))

	w := executeCommand(t, handler, `{"name":"cancel_booking","arguments":{}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
