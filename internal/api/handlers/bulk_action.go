package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"productpager/internal/api/middleware"
	"productpager/internal/catalog"
	"productpager/internal/database"
	"productpager/internal/events"
	"productpager/internal/logger"
	"productpager/internal/metrics"
	"productpager/internal/models"
)

type BulkActionRepository interface {
	Create(ctx context.Context, action *models.BulkAction) error
	Get(ctx context.Context, shop, id string) (*models.BulkAction, error)
	MarkFailed(ctx context.Context, id string, cause error) error
}

type BulkActionHandler struct {
	store     BulkActionRepository
	publisher events.Publisher
	logger    *logger.Logger
}

func NewBulkActionHandler(store BulkActionRepository, publisher events.Publisher, logger *logger.Logger) *BulkActionHandler {
	return &BulkActionHandler{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

type createBulkActionRequest struct {
	Kind       string   `json:"kind" binding:"required,oneof=EDIT_PRODUCTS ADD_TAGS REMOVE_TAGS DELETE_PRODUCTS"`
	ProductIDs []string `json:"product_ids" binding:"required,min=1,dive,required"`
}

// Create records the action and queues it for the worker.
func (h *BulkActionHandler) Create(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session == nil {
		middleware.AbortUnauthorized(c, "")
		return
	}

	var request createBulkActionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, err := catalog.ParseActionKind(request.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	action := &models.BulkAction{
		Shop:       session.Shop,
		Kind:       kind,
		ProductIDs: request.ProductIDs,
	}
	if err := h.store.Create(ctx, action); err != nil {
		h.logger.Error("Failed to create bulk action: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bulk action"})
		return
	}

	err = h.publisher.PublishBulkAction(ctx, events.BulkActionEvent{
		ActionID:    action.ID,
		Shop:        action.Shop,
		Kind:        action.Kind,
		ProductIDs:  action.ProductIDs,
		RequestedAt: action.CreatedAt,
	})
	if err != nil {
		h.logger.Error("Failed to queue bulk action %s: %v", action.ID, err)
		if markErr := h.store.MarkFailed(ctx, action.ID, err); markErr != nil {
			h.logger.Error("Failed to mark bulk action %s failed: %v", action.ID, markErr)
		}
		metrics.BulkActions.WithLabelValues(string(kind), "unqueued").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue bulk action"})
		return
	}

	metrics.BulkActions.WithLabelValues(string(kind), "queued").Inc()
	c.JSON(http.StatusAccepted, gin.H{"data": action})
}

func (h *BulkActionHandler) Get(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session == nil {
		middleware.AbortUnauthorized(c, "")
		return
	}

	action, err := h.store.Get(c.Request.Context(), session.Shop, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrBulkActionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bulk action not found"})
			return
		}
		h.logger.Error("Failed to fetch bulk action: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bulk action"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": action})
}
