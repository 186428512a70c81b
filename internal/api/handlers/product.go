package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"productpager/internal/api/middleware"
	"productpager/internal/catalog"
	"productpager/internal/config"
	"productpager/internal/logger"
	"productpager/internal/metrics"
	"productpager/internal/models"
	"productpager/internal/services/shopify"
)

// ExecutorSource builds the product query for a shop session.
type ExecutorSource interface {
	Executor(session *models.Session, view catalog.View) catalog.QueryExecutor
	Invalidate(shop string)
}

// ShopifyExecutors serves Admin GraphQL product queries from a client pool.
type ShopifyExecutors struct {
	pool   *shopify.ClientPool
	config *config.Config
}

func NewShopifyExecutors(pool *shopify.ClientPool, cfg *config.Config) *ShopifyExecutors {
	return &ShopifyExecutors{pool: pool, config: cfg}
}

func (s *ShopifyExecutors) Executor(session *models.Session, view catalog.View) catalog.QueryExecutor {
	client := s.pool.Get(session.Shop, session.AccessToken)
	if view == catalog.ViewGallery {
		images := s.config.GalleryImagesPerProduct
		// Per-product cards only ever show the first image.
		if s.config.GalleryMode == "product" {
			images = 1
		}
		return shopify.NewGalleryQuery(client, s.config.GalleryPageSize, images)
	}
	return shopify.NewListQuery(client, s.config.ListPageSize)
}

func (s *ShopifyExecutors) Invalidate(shop string) {
	s.pool.Forget(shop)
}

type ProductHandler struct {
	executors ExecutorSource
	timeout   time.Duration
	logger    *logger.Logger
}

func NewProductHandler(executors ExecutorSource, timeout time.Duration, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		executors: executors,
		timeout:   timeout,
		logger:    logger,
	}
}

// List serves GET /app/productlist.
func (h *ProductHandler) List(c *gin.Context) {
	h.load(c, catalog.ViewList)
}

// Gallery serves GET /app/productgallery.
func (h *ProductHandler) Gallery(c *gin.Context) {
	h.load(c, catalog.ViewGallery)
}

// NextPage serves GET /api/shopify/graphql, the client-side next-page
// endpoint. It returns list pages.
func (h *ProductHandler) NextPage(c *gin.Context) {
	h.load(c, catalog.ViewList)
}

func (h *ProductHandler) load(c *gin.Context, view catalog.View) {
	session := middleware.SessionFrom(c)
	if session == nil {
		middleware.AbortUnauthorized(c, "")
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	after := c.Query("after")
	resp := catalog.NewLoader(h.executors.Executor(session, view)).Load(ctx, after)

	err := resp.Err()
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrAuth):
		h.executors.Invalidate(session.Shop)
		h.logger.Warn("Shopify rejected token for %s", session.Shop)
		metrics.PageLoads.WithLabelValues(string(view), "unauthorized").Inc()
		middleware.AbortUnauthorized(c, session.Shop)
		return
	case catalog.IsTimeout(err):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusBadGateway
	}

	if err != nil {
		h.logger.Error("Failed to load %s page for %s (after=%q): %v", view, session.Shop, after, err)
	}
	metrics.PageLoads.WithLabelValues(string(view), http.StatusText(status)).Inc()

	c.JSON(status, resp)
}
