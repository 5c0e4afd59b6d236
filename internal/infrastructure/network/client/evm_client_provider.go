package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/infrastructure/configloader"
)

type dialFunc func(def entity.NetworkDefinition, connectTimeout, callTimeout time.Duration) (port.BlockchainClient, error)

// ClientProvider keeps one read-only client per network and endpoint list.
// A failed dial is not remembered, so the next connect attempt dials again.
type ClientProvider struct {
	mu             sync.Mutex
	clients        map[string]port.BlockchainClient
	logger         port.Logger
	connectTimeout time.Duration
	callTimeout    time.Duration
	dial           dialFunc
}

// NewClientProvider creates a ClientProvider with the RPC timeouts from cfg.
func NewClientProvider(cfg configloader.RpcClientConfig, log port.Logger) *ClientProvider {
	return &ClientProvider{
		clients:        make(map[string]port.BlockchainClient),
		logger:         log,
		connectTimeout: time.Duration(cfg.ConnectionTimeoutMs) * time.Millisecond,
		callTimeout:    time.Duration(cfg.DefaultTimeoutMs) * time.Millisecond,
		dial: func(def entity.NetworkDefinition, connectTimeout, callTimeout time.Duration) (port.BlockchainClient, error) {
			return NewEVMClient(def, connectTimeout, callTimeout)
		},
	}
}

func clientKey(def entity.NetworkDefinition) string {
	return fmt.Sprintf("%d|%s", def.ChainID, strings.Join(def.RPCURLs(), ","))
}

// GetClient returns the cached client for def or dials a new one.
func (p *ClientProvider) GetClient(def entity.NetworkDefinition) (port.BlockchainClient, error) {
	key := clientKey(def)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		p.logger.Debug("Reusing RPC client", "network", def.Name)
		return c, nil
	}

	c, err := p.dial(def, p.connectTimeout, p.callTimeout)
	if err != nil {
		p.logger.Error("RPC dial failed", "network", def.Name, "endpoints", len(def.RPCURLs()), "error", err)
		return nil, fmt.Errorf("failed to reach public RPC for %s: %w", def.Name, err)
	}

	endpoint := def.PrimaryRPCURL
	if e, ok := c.(interface{ URL() string }); ok && e.URL() != "" {
		endpoint = e.URL()
	}
	if endpoint != def.PrimaryRPCURL {
		p.logger.Warn("Primary RPC unavailable, using fallback", "network", def.Name, "primary", def.PrimaryRPCURL, "endpoint", endpoint)
	} else {
		p.logger.Info("RPC client connected", "network", def.Name, "endpoint", endpoint)
	}

	p.clients[key] = c
	return c, nil
}

var _ port.BlockchainClientProvider = (*ClientProvider)(nil)
