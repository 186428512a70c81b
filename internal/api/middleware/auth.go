package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"productpager/internal/database"
	"productpager/internal/logger"
	"productpager/internal/models"
	"productpager/internal/services/shopify"
)

const (
	ShopHeader = "X-Shopify-Shop-Domain"
	sessionKey = "session"
)

type SessionFinder interface {
	FindByShop(ctx context.Context, shop string) (*models.Session, error)
}

// ShopAuthenticator proves which shop a request comes from, e.g. from a
// session token or a signed admin launch query.
type ShopAuthenticator interface {
	AuthenticateRequest(r *http.Request) (string, error)
}

// RequireSession authenticates the shop behind the request and loads its
// stored session. The shop query parameter or X-Shopify-Shop-Domain header
// is only a claim: it must match the authenticated shop and is otherwise
// used for the install redirect. Requests failing either check are answered
// with 401 and a redirect to the install route.
func RequireSession(sessions SessionFinder, auth ShopAuthenticator, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimed := c.Query("shop")
		if claimed == "" {
			claimed = c.GetHeader(ShopHeader)
		}
		claimed = shopify.NormalizeShopDomain(claimed)
		if !shopify.ValidShopDomain(claimed) {
			claimed = ""
		}

		shop, err := auth.AuthenticateRequest(c.Request)
		if err != nil {
			logger.Debug("Rejected unauthenticated request for %q: %v", claimed, err)
			AbortUnauthorized(c, claimed)
			return
		}
		if claimed != "" && claimed != shop {
			logger.Warn("Request authenticated as %s claimed shop %s", shop, claimed)
			AbortUnauthorized(c, claimed)
			return
		}

		session, err := sessions.FindByShop(c.Request.Context(), shop)
		if err != nil {
			if !errors.Is(err, database.ErrSessionNotFound) {
				logger.Error("Failed to load session for %s: %v", shop, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
				return
			}
			AbortUnauthorized(c, shop)
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) *models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*models.Session); ok {
			return s
		}
	}
	return nil
}

// InstallRedirect is where a shop without a valid token is sent.
func InstallRedirect(shop string) string {
	if shop == "" {
		return "/auth/install"
	}
	return "/auth/install?shop=" + url.QueryEscape(shop)
}

// AbortUnauthorized answers with the page loader body shape, an error and
// the sign-in redirect.
func AbortUnauthorized(c *gin.Context, shop string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"items":       []interface{}{},
		"hasNextPage": false,
		"endCursor":   nil,
		"error":       "authentication required",
		"redirect":    InstallRedirect(shop),
	})
}
