package shopify

import (
	"sync"

	"productpager/internal/logger"
)

// ClientPool keeps one Client per shop so each shop gets its own breaker.
type ClientPool struct {
	mu      sync.Mutex
	clients map[string]*Client
	opts    []Option
	logger  *logger.Logger
}

func NewClientPool(logger *logger.Logger, opts ...Option) *ClientPool {
	return &ClientPool{
		clients: make(map[string]*Client),
		opts:    opts,
		logger:  logger,
	}
}

// Get returns the client for shop, replacing it when the token changed.
func (p *ClientPool) Get(shop, accessToken string) *Client {
	shop = NormalizeShopDomain(shop)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[shop]; ok && c.accessToken == accessToken {
		return c
	}
	c := NewClient(shop, accessToken, p.logger.With("shop", shop), p.opts...)
	p.clients[shop] = c
	return c
}

// Forget drops the cached client, e.g. after the token was rejected.
func (p *ClientPool) Forget(shop string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.clients, NormalizeShopDomain(shop))
}
