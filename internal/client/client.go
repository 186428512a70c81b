// Package client calls the page loader routes of the API server and feeds an
// accumulator with the pages it receives.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"productpager/internal/catalog"
	"productpager/internal/logger"
	"productpager/internal/services/shopify"
)

const (
	shopHeader      = "X-Shopify-Shop-Domain"
	sessionTokenTTL = time.Minute
)

type Client struct {
	baseURL    string
	shop       string
	view       catalog.View
	httpClient *http.Client
	logger     *logger.Logger

	clientID     string
	clientSecret string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithView selects the gallery routes instead of the list routes.
func WithView(view catalog.View) Option {
	return func(c *Client) {
		c.view = view
	}
}

// WithAppCredentials signs every request with a short-lived session token
// for the shop, the way the embedded admin authenticates its fetches.
func WithAppCredentials(clientID, clientSecret string) Option {
	return func(c *Client) {
		c.clientID = clientID
		c.clientSecret = clientSecret
	}
}

func WithLogger(logger *logger.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL, shop string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		shop:    shop,
		view:    catalog.ViewList,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.NewWithOutput("error", io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) View() catalog.View {
	return c.view
}

// LoadPage calls the page loader route of the view. Failures are folded into
// the returned response so it can seed an accumulator directly.
func (c *Client) LoadPage(ctx context.Context, after string) catalog.Response {
	path := "/app/productlist"
	if c.view == catalog.ViewGallery {
		path = "/app/productgallery"
	}

	page, err := c.getPage(ctx, path, after)
	if err != nil {
		return catalog.FailedResponse(err)
	}
	return catalog.NewResponse(*page)
}

// FetchPage requests the page after the cursor from the next-page endpoint.
// It implements catalog.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, after string) (*catalog.Page, error) {
	path := "/api/shopify/graphql"
	if c.view == catalog.ViewGallery {
		path = "/app/productgallery"
	}
	return c.getPage(ctx, path, after)
}

func (c *Client) authorize(req *http.Request) error {
	if c.clientSecret == "" {
		return nil
	}
	token, err := shopify.NewSessionToken(c.clientID, c.clientSecret, shopify.NormalizeShopDomain(c.shop), sessionTokenTTL)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

type errorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

func (c *Client) getPage(ctx context.Context, path, after string) (*catalog.Page, error) {
	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	}
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(shopHeader, c.shop)
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	c.logger.Debug("GET %s", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, catalog.AsFetchError("fetch page", fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, catalog.AsFetchError("fetch page", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: sign in at %s", catalog.ErrAuth, eb.Redirect)
		}
		msg := eb.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &catalog.FetchError{
			Op:         "fetch page",
			StatusCode: resp.StatusCode,
			Timeout:    resp.StatusCode == http.StatusGatewayTimeout,
			Err:        errors.New(msg),
		}
	}

	var payload catalog.Response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &catalog.FetchError{Op: "fetch page", Err: fmt.Errorf("%w: %v", catalog.ErrMalformedResponse, err)}
	}
	if err := payload.Err(); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		return nil, &catalog.FetchError{Op: "fetch page", Err: fmt.Errorf("%w: missing items", catalog.ErrMalformedResponse)}
	}

	page := payload.Page()
	return &page, nil
}

type bulkActionRequest struct {
	Kind       catalog.ActionKind `json:"kind"`
	ProductIDs []string           `json:"product_ids"`
}

type bulkActionResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Error string `json:"error"`
}

// DispatchBulkAction queues a bulk action and returns its id.
func (c *Client) DispatchBulkAction(ctx context.Context, kind catalog.ActionKind, productIDs []string) (string, error) {
	payload, err := json.Marshal(bulkActionRequest{Kind: kind, ProductIDs: productIDs})
	if err != nil {
		return "", fmt.Errorf("failed to marshal bulk action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/shopify/bulk-actions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(shopHeader, c.shop)
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var out bulkActionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", catalog.ErrAuth
	case resp.StatusCode != http.StatusAccepted:
		return "", fmt.Errorf("bulk action rejected with status %d: %s", resp.StatusCode, out.Error)
	}
	return out.Data.ID, nil
}
