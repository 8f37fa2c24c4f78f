package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	portssvc "github.com/ledgerlink/exchange-bot/internal/core/ports/services"
	"github.com/ledgerlink/exchange-bot/internal/dto"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
)

// eventHandler handles incoming ledger webhook events.
type eventHandler struct {
	dispatchService portssvc.EventDispatchSvcFacade
}

func newEventHandler(ds portssvc.EventDispatchSvcFacade) *eventHandler {
	return &eventHandler{
		dispatchService: ds,
	}
}

// registerEventRoutes registers the webhook event intake route.
func registerEventRoutes(rg *gin.RouterGroup, dispatchService portssvc.EventDispatchSvcFacade) {
	h := newEventHandler(dispatchService)

	events := rg.Group("/events")
	{
		events.POST("", h.handleEvent)
	}
}

// handleEvent receives a webhook event, mirrors it across the connected
// books, and returns one response line per book that changed. Failures on
// individual connected books are reported alongside the lines that succeeded.
func (h *eventHandler) handleEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.WebhookEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for webhook event", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	event := req.ToDomainEvent()
	logger = logger.With(slog.String("book_id", event.BookID), slog.String("event_kind", string(event.Kind)))
	logger.Info("Received webhook event")

	results, err := h.dispatchService.DispatchEvent(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Malformed event payload", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Book not found for event", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		if len(results) > 0 {
			// Some connected books synced, others failed. Report both.
			logger.Warn("Event partially dispatched", slog.String("error", err.Error()), slog.Int("synced", len(results)))
			c.JSON(http.StatusOK, dto.DispatchResponse{
				Results: results,
				Errors:  splitJoinedErrors(err),
			})
			return
		}
		logger.Error("Failed to dispatch event", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispatch event"})
		return
	}

	logger.Info("Event dispatched successfully", slog.Int("synced", len(results)))
	c.JSON(http.StatusOK, dto.DispatchResponse{Results: results})
}

// splitJoinedErrors flattens an errors.Join result into printable messages.
func splitJoinedErrors(err error) []string {
	type unwrapper interface {
		Unwrap() []error
	}
	if joined, ok := err.(unwrapper); ok {
		errs := joined.Unwrap()
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		return messages
	}
	return []string{err.Error()}
}
