package shopify

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"productpager/internal/config"
	"productpager/internal/logger"
)

var (
	ErrInvalidShop      = errors.New("invalid shop domain")
	ErrInvalidSignature = errors.New("invalid callback signature")
)

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`)

// NormalizeShopDomain turns "acme", "acme.myshopify.com" or
// "https://acme.myshopify.com/" into "acme.myshopify.com".
func NormalizeShopDomain(shop string) string {
	shop = strings.TrimSpace(strings.ToLower(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.TrimSuffix(shop, "/")
	if shop != "" && !strings.HasSuffix(shop, ".myshopify.com") {
		shop += ".myshopify.com"
	}
	return shop
}

// ValidShopDomain reports whether shop is a normalized myshopify domain.
func ValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

type OAuthService struct {
	config     *config.Config
	logger     *logger.Logger
	httpClient *http.Client
	tokenURL   func(shop string) string
}

func NewOAuthService(cfg *config.Config, logger *logger.Logger) *OAuthService {
	return &OAuthService{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.UpstreamTimeout,
		},
		tokenURL: func(shop string) string {
			return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
		},
	}
}

// RedirectURI is where Shopify sends the merchant back after install.
func (s *OAuthService) RedirectURI() string {
	return strings.TrimSuffix(s.config.AppURL, "/") + "/auth/callback"
}

// GenerateAuthURL creates the authorization URL and the state value the
// callback must echo back.
func (s *OAuthService) GenerateAuthURL(shop string) (string, string, error) {
	shop = NormalizeShopDomain(shop)
	if !ValidShopDomain(shop) {
		return "", "", ErrInvalidShop
	}

	state, err := s.generateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	q := url.Values{}
	q.Set("client_id", s.config.ShopifyClientID)
	q.Set("scope", s.config.ShopifyScopes)
	q.Set("redirect_uri", s.RedirectURI())
	q.Set("state", state)

	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, q.Encode()), state, nil
}

// VerifyCallback checks the hmac parameter Shopify signs the callback query
// with: every other parameter, sorted by key, joined as k=v pairs with &.
func (s *OAuthService) VerifyCallback(query url.Values) error {
	given := query.Get("hmac")
	if given == "" {
		return ErrInvalidSignature
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+strings.Join(query[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(s.config.ShopifyClientSecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(given))) {
		return ErrInvalidSignature
	}
	if !ValidShopDomain(query.Get("shop")) {
		return ErrInvalidShop
	}
	return nil
}

// ExchangeCodeForToken trades the callback code for an offline access token.
func (s *OAuthService) ExchangeCodeForToken(ctx context.Context, shop, code string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("client_id", s.config.ShopifyClientID)
	data.Set("client_secret", s.config.ShopifyClientSecret)
	data.Set("code", code)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL(shop), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, body)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}

	s.logger.Info("Obtained access token for %s with scope %q", shop, tokenResp.Scope)
	return &tokenResp, nil
}

func (s *OAuthService) generateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
