package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"productpager/internal/config"
	"productpager/internal/database"
	"productpager/internal/logger"
	"productpager/internal/metrics"
	"productpager/internal/models"
	"productpager/internal/services/shopify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) FindByShop(ctx context.Context, shop string) (*models.Session, error) {
	args := m.Called(ctx, shop)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func testLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithOutput("debug", &buf), &buf
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://admin.shopify.com"}))
	router.GET("/app/productlist", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/app/productlist", nil)
	req.Header.Set("Origin", "https://admin.shopify.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.shopify.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/app/productlist", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics_CountsByRoute(t *testing.T) {
	router := gin.New()
	router.Use(Metrics())
	router.GET("/items/:id", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})

	matched := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/items/:id", "418")
	unmatched := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")
	beforeMatched := testutil.ToFloat64(matched)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}

func TestRecovery(t *testing.T) {
	log, buf := testLogger()
	router := gin.New()
	router.Use(RequestID(), Recovery(log))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	assert.Contains(t, buf.String(), "boom")
}

func TestLogger_WritesRequestLine(t *testing.T) {
	log, buf := testLogger()
	router := gin.New()
	router.Use(RequestID(), Logger(log))
	router.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Contains(t, buf.String(), "/healthz")
}

func newAuthRouter(sessions SessionFinder) *gin.Engine {
	log, _ := testLogger()
	oauth := shopify.NewOAuthService(&config.Config{
		ShopifyClientID:     "client-id",
		ShopifyClientSecret: "hush",
	}, log)

	router := gin.New()
	router.GET("/app/productlist", RequireSession(sessions, oauth, log), func(c *gin.Context) {
		c.String(http.StatusOK, SessionFrom(c).Shop)
	})
	return router
}

func sessionRequest(t *testing.T, target, shop string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if shop != "" {
		token, err := shopify.NewSessionToken("client-id", "hush", shop, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestRequireSession(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("FindByShop", mock.Anything, "good.myshopify.com").
		Return(&models.Session{Shop: "good.myshopify.com", AccessToken: "tok"}, nil)
	sessions.On("FindByShop", mock.Anything, "new.myshopify.com").
		Return(nil, database.ErrSessionNotFound)
	sessions.On("FindByShop", mock.Anything, "broken.myshopify.com").
		Return(nil, errors.New("connection refused"))

	router := newAuthRouter(sessions)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("session token", func(t *testing.T) {
		w := serve(sessionRequest(t, "/app/productlist", "good.myshopify.com"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "good.myshopify.com", w.Body.String())
	})

	t.Run("matching claim", func(t *testing.T) {
		req := sessionRequest(t, "/app/productlist?shop=good", "good.myshopify.com")
		req.Header.Set(ShopHeader, "good.myshopify.com")
		assert.Equal(t, http.StatusOK, serve(req).Code)
	})

	t.Run("unsigned request naming an installed shop", func(t *testing.T) {
		w := serve(sessionRequest(t, "/app/productlist?shop=good.myshopify.com", ""))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), "tok")

		req := sessionRequest(t, "/app/productlist", "")
		req.Header.Set(ShopHeader, "good.myshopify.com")
		assert.Equal(t, http.StatusUnauthorized, serve(req).Code)
	})

	t.Run("token for another shop", func(t *testing.T) {
		w := serve(sessionRequest(t, "/app/productlist?shop=good.myshopify.com", "new.myshopify.com"))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "/auth/install?shop=good.myshopify.com")
	})

	t.Run("forged token", func(t *testing.T) {
		token, err := shopify.NewSessionToken("client-id", "guessed", "good.myshopify.com", time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/app/productlist", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, serve(req).Code)
	})

	t.Run("not installed redirects to install", func(t *testing.T) {
		w := serve(sessionRequest(t, "/app/productlist", "new.myshopify.com"))
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, []interface{}{}, body["items"])
		assert.Nil(t, body["endCursor"])
		assert.Equal(t, false, body["hasNextPage"])
		assert.Equal(t, "/auth/install?shop=new.myshopify.com", body["redirect"])
	})

	t.Run("missing shop", func(t *testing.T) {
		w := serve(sessionRequest(t, "/app/productlist", ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"/auth/install"`)
	})

	t.Run("store failure", func(t *testing.T) {
		w := serve(sessionRequest(t, "/app/productlist", "broken.myshopify.com"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
