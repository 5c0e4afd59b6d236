package client

import (
	"context"
	"fmt"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// EVMClient implements the port.BlockchainClient interface for EVM-compatible chains.
// The embedded ethclient serves calls, logs and receipts for the read-only binding.
type EVMClient struct {
	*ethclient.Client
	netDef         entity.NetworkDefinition
	url            string
	rpcCallTimeout time.Duration
}

// NewEVMClient dials the primary RPC URL and then the fallbacks, keeping the first endpoint
// that answers eth_chainId with the expected chain.
func NewEVMClient(netDef entity.NetworkDefinition, connectionTimeout time.Duration, rpcCallTimeout time.Duration) (*EVMClient, error) {
	rpcURLs := netDef.RPCURLs()
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("network %s has no RPC URLs", netDef.Name)
	}
	var lastErr error

	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		rpcClient, err := rpc.DialContext(ctx, rpcURL)
		if err != nil {
			cancel()
			lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
			continue
		}

		c := &EVMClient{Client: ethclient.NewClient(rpcClient), netDef: netDef, url: rpcURL, rpcCallTimeout: rpcCallTimeout}
		chainID, err := c.ChainID(ctx)
		cancel()
		if err != nil {
			c.Close()
			lastErr = fmt.Errorf("failed to verify chainID for %s: %w", rpcURL, err)
			continue
		}
		if !chainID.IsUint64() || chainID.Uint64() != netDef.ChainID {
			c.Close()
			lastErr = fmt.Errorf("chainID mismatch for %s: expected %d, got %s", rpcURL, netDef.ChainID, chainID)
			continue
		}
		return c, nil
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

// NewEVMClientFromRPC wraps an already established RPC connection.
func NewEVMClientFromRPC(netDef entity.NetworkDefinition, rpcClient *rpc.Client, rpcCallTimeout time.Duration) *EVMClient {
	return &EVMClient{Client: ethclient.NewClient(rpcClient), netDef: netDef, rpcCallTimeout: rpcCallTimeout}
}

// ProbeChainID fetches eth_chainId and eth_blockNumber using a JSON-RPC batch request.
func (c *EVMClient) ProbeChainID(ctx context.Context) (string, uint64, error) {
	var chainID hexutil.Big
	var head hexutil.Uint64
	batch := []rpc.BatchElem{
		{Method: "eth_chainId", Result: &chainID},
		{Method: "eth_blockNumber", Result: &head},
	}

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := c.Client.Client().BatchCallContext(rpcCallCtx, batch); err != nil {
		return "", 0, fmt.Errorf("RPC batch call to %s failed: %w", c.url, err)
	}
	if batch[0].Error != nil {
		return "", 0, fmt.Errorf("failed to fetch chain id from %s: %w", c.netDef.Name, batch[0].Error)
	}
	// The head is informational; a node that only fails eth_blockNumber still identifies its chain.
	if batch[1].Error != nil {
		return chainID.String(), 0, nil
	}
	return chainID.String(), uint64(head), nil
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// URL is the endpoint this client is connected to.
func (c *EVMClient) URL() string {
	return c.url
}

var _ port.BlockchainClient = (*EVMClient)(nil)
