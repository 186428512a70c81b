package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"productpager/internal/logger"
	"productpager/internal/models"
	"productpager/internal/services/shopify"
)

const stateCookie = "shopify_oauth_state"

// OAuthProvider is the install flow of the Shopify app.
type OAuthProvider interface {
	GenerateAuthURL(shop string) (string, string, error)
	VerifyCallback(query url.Values) error
	ExchangeCodeForToken(ctx context.Context, shop, code string) (*shopify.TokenResponse, error)
	AdminAppURL(shop string) string
}

type SessionSaver interface {
	Save(ctx context.Context, session *models.Session) error
}

type ShopifyHandler struct {
	oauth        OAuthProvider
	sessions     SessionSaver
	logger       *logger.Logger
	secureCookie bool
}

func NewShopifyHandler(oauth OAuthProvider, sessions SessionSaver, logger *logger.Logger, secureCookie bool) *ShopifyHandler {
	return &ShopifyHandler{
		oauth:        oauth,
		sessions:     sessions,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Install starts the OAuth flow for ?shop= and redirects to Shopify.
func (h *ShopifyHandler) Install(c *gin.Context) {
	var request struct {
		Shop string `form:"shop" binding:"required"`
	}
	if err := c.ShouldBindQuery(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing shop parameter"})
		return
	}

	authURL, state, err := h.oauth.GenerateAuthURL(request.Shop)
	if err != nil {
		if errors.Is(err, shopify.ErrInvalidShop) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop domain"})
			return
		}
		h.logger.Error("Failed to generate auth URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authorization URL"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/auth", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, authURL)
}

// Callback verifies the signed callback, stores the offline token and sends
// the merchant to the app inside the shop admin, which loads the product
// list with a signed launch query.
func (h *ShopifyHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	shop := c.Query("shop")

	if code == "" || state == "" || shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	expected, err := c.Cookie(stateCookie)
	if err != nil || expected != state {
		c.JSON(http.StatusForbidden, gin.H{"error": "OAuth state mismatch"})
		return
	}

	if err := h.oauth.VerifyCallback(c.Request.URL.Query()); err != nil {
		h.logger.Warn("Rejected OAuth callback for %s: %v", shop, err)
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid callback signature"})
		return
	}

	tokenResp, err := h.oauth.ExchangeCodeForToken(c.Request.Context(), shop, code)
	if err != nil {
		h.logger.Error("Failed to exchange code for token: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	session := &models.Session{
		Shop:        shop,
		AccessToken: tokenResp.AccessToken,
		Scope:       tokenResp.Scope,
	}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		h.logger.Error("Failed to save session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	h.logger.Info("Shop %s installed the app", shop)
	c.SetCookie(stateCookie, "", -1, "/auth", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.oauth.AdminAppURL(shop))
}
