package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cineops/showtime-api/internal/service"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
	"github.com/cineops/showtime-api/pkg/response"
)

// CommandHandler is the function-call boundary used by the conversational
// layer: it accepts a named operation with a raw argument document, maps it
// to a typed command and dispatches it.
type CommandHandler struct {
	dispatcher *service.Dispatcher
}

// NewCommandHandler constructs handler.
func NewCommandHandler(dispatcher *service.Dispatcher) *CommandHandler {
	return &CommandHandler{dispatcher: dispatcher}
}

type commandEnvelope struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Execute godoc
// @Summary Execute a named scheduling command
// @Tags Commands
// @Accept json
// @Produce json
// @Param payload body handler.commandEnvelope true "Command name and arguments"
// @Success 200 {object} response.Envelope
// @Router /commands [post]
func (h *CommandHandler) Execute(c *gin.Context) {
	var envelope commandEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if envelope.Name == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "command name is required"))
		return
	}

	cmd, err := service.ParseCommand(envelope.Name, envelope.Arguments)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.dispatcher.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
