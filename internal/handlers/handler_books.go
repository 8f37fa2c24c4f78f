package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	portssvc "github.com/ledgerlink/exchange-bot/internal/core/ports/services"
	"github.com/ledgerlink/exchange-bot/internal/dto"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
)

// bookHandler handles book-scoped operations: triggering a gain/loss
// reconciliation run and listing recent sync activity.
type bookHandler struct {
	reconcileService portssvc.ReconcileSvcFacade
	syncLogService   portssvc.SyncLogSvcFacade
}

func newBookHandler(rs portssvc.ReconcileSvcFacade, sls portssvc.SyncLogSvcFacade) *bookHandler {
	return &bookHandler{
		reconcileService: rs,
		syncLogService:   sls,
	}
}

// registerBookRoutes registers routes scoped to a single base book.
func registerBookRoutes(rg *gin.RouterGroup, reconcileService portssvc.ReconcileSvcFacade, syncLogService portssvc.SyncLogSvcFacade) {
	h := newBookHandler(reconcileService, syncLogService)

	books := rg.Group("/books/:book_id")
	{
		books.POST("/gain-loss", h.updateGainLoss)
		books.GET("/activity", h.listActivity)
	}
}

// updateGainLoss runs drift reconciliation for every connected book as of the
// requested date and books the gain or loss adjustments.
func (h *bookHandler) updateGainLoss(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookID := c.Param("book_id")

	var req dto.GainLossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for gain/loss run", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("book_id", bookID), slog.String("date", req.Date))
	logger.Info("Received request to update gain/loss")

	results, err := h.reconcileService.UpdateGainLoss(c.Request.Context(), bookID, req.Date)
	if err != nil {
		if errors.Is(err, apperrors.ErrConfiguration) {
			logger.Warn("Book misconfigured for gain/loss run", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Book not found for gain/loss run")
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		if len(results) > 0 {
			logger.Warn("Gain/loss run partially completed", slog.String("error", err.Error()), slog.Int("posted", len(results)))
			c.JSON(http.StatusOK, dto.DispatchResponse{
				Results: results,
				Errors:  splitJoinedErrors(err),
			})
			return
		}
		logger.Error("Failed to update gain/loss", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update gain/loss"})
		return
	}

	logger.Info("Gain/loss run completed", slog.Int("posted", len(results)))
	c.JSON(http.StatusOK, dto.DispatchResponse{Results: results})
}

// listActivity returns the most recent sync records for a base book.
func (h *bookHandler) listActivity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookID := c.Param("book_id")

	if h.syncLogService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Sync activity log is not configured"})
		return
	}

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	logger = logger.With(slog.String("book_id", bookID))
	logger.Info("Received request to list sync activity")

	records, err := h.syncLogService.ListRecentActivity(c.Request.Context(), bookID, limit)
	if err != nil {
		logger.Error("Failed to list sync activity", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sync activity"})
		return
	}

	logger.Info("Sync activity listed successfully", slog.Int("count", len(records)))
	c.JSON(http.StatusOK, dto.ToSyncRecordResponses(records))
}
