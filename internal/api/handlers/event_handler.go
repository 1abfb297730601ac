package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stagehq/upload-validator/internal/domain"
)

// WorkflowRunner processes one object-created event to completion.
type WorkflowRunner interface {
	Run(ctx context.Context, requestID string, event domain.ObjectCreated) (*domain.Response, error)
}

type EventHandler struct {
	workflow WorkflowRunner
}

func NewEventHandler(workflow WorkflowRunner) *EventHandler {
	return &EventHandler{workflow: workflow}
}

// HandleEvent ingests a bucket notification and runs the validation workflow.
// Both the valid and the quarantine branch answer 200; missing input fields
// answer 422 and remote-call failures 502.
func (h *EventHandler) HandleEvent(c *gin.Context) {
	var envelope domain.NotificationEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	event, err := envelope.First()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	resp, err := h.workflow.Run(c.Request.Context(), requestID, event)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("validation workflow failed")
		if errors.Is(err, domain.ErrMissingField) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
