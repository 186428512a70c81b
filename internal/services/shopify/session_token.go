package shopify

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrUnsignedRequest     = errors.New("request carries no session token or signature")
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrStaleLaunch         = errors.New("signed launch parameters expired")
)

const (
	sessionTokenLeeway = 5 * time.Second
	// Admin launch URLs are re-signed on every iframe load.
	launchMaxAge = time.Hour
)

// SessionClaims are the claims of an admin session token. Dest is the shop
// origin, e.g. https://acme.myshopify.com.
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// NewSessionToken signs a session token for shop in the format the Shopify
// admin issues, with the app credentials.
func NewSessionToken(clientID, clientSecret, shop string, ttl time.Duration) (string, error) {
	now := time.Now()
	origin := "https://" + shop
	claims := SessionClaims{
		Dest: origin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    origin + "/admin",
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(clientSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// VerifySessionToken checks signature, lifetime and audience of a session
// token and returns the shop it was issued for.
func (s *OAuthService) VerifySessionToken(raw string) (string, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) {
			return []byte(s.config.ShopifyClientSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.config.ShopifyClientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(sessionTokenLeeway),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	dest, err := url.Parse(claims.Dest)
	if err != nil || dest.Scheme != "https" || !ValidShopDomain(dest.Host) {
		return "", fmt.Errorf("%w: bad dest %q", ErrInvalidSessionToken, claims.Dest)
	}
	iss, err := url.Parse(claims.Issuer)
	if err != nil || iss.Host != dest.Host {
		return "", fmt.Errorf("%w: issuer %q does not match dest", ErrInvalidSessionToken, claims.Issuer)
	}
	return strings.ToLower(dest.Host), nil
}

// VerifyLaunch checks the signed query the admin appends when it loads an
// app page (shop, timestamp, hmac, ...) and returns the shop.
func (s *OAuthService) VerifyLaunch(query url.Values) (string, error) {
	if err := s.VerifyCallback(query); err != nil {
		return "", err
	}

	ts, err := strconv.ParseInt(query.Get("timestamp"), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: missing timestamp", ErrInvalidSignature)
	}
	age := time.Since(time.Unix(ts, 0))
	if age > launchMaxAge || age < -sessionTokenLeeway {
		return "", ErrStaleLaunch
	}
	return query.Get("shop"), nil
}

// AuthenticateRequest returns the shop a request is proven to come from: a
// bearer session token, an id_token launch parameter or a signed launch
// query, in that order.
func (s *OAuthService) AuthenticateRequest(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return s.VerifySessionToken(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
	}

	query := r.URL.Query()
	if token := query.Get("id_token"); token != "" {
		return s.VerifySessionToken(token)
	}
	if query.Get("hmac") != "" {
		return s.VerifyLaunch(query)
	}
	return "", ErrUnsignedRequest
}

// AdminAppURL is the embedded app inside the shop admin.
func (s *OAuthService) AdminAppURL(shop string) string {
	return fmt.Sprintf("https://%s/admin/apps/%s", shop, s.config.ShopifyClientID)
}
