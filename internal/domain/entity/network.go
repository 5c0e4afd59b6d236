package entity

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NativeCurrency describes the native coin of a network as wallets expect it in wallet_addEthereumChain.
type NativeCurrency struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int32  `json:"decimals" yaml:"decimals"`
}

// NetworkDefinition holds the configuration for a specific blockchain network.
// The target network of a session is one of these and never changes while the process runs.
type NetworkDefinition struct {
	ChainID          uint64         `json:"chainId" yaml:"chainId"`
	Name             string         `json:"name" yaml:"name"`
	Identifier       string         `json:"identifier" yaml:"identifier"` // e.g. "sepolia", "ethereum"
	NativeCurrency   NativeCurrency `json:"nativeCurrency" yaml:"nativeCurrency"`
	PrimaryRPCURL    string         `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs  []string       `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	BlockExplorerURL string         `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
}

// ChainIDHex returns the canonical 0x-prefixed lower-case hex form of the chain id.
func (n NetworkDefinition) ChainIDHex() string {
	return hexutil.EncodeUint64(n.ChainID)
}

// RPCURLs returns the primary RPC URL followed by the fallbacks, skipping blanks.
func (n NetworkDefinition) RPCURLs() []string {
	urls := make([]string, 0, 1+len(n.FallbackRPCURLs))
	for _, u := range append([]string{n.PrimaryRPCURL}, n.FallbackRPCURLs...) {
		if strings.TrimSpace(u) != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// TxURL links a transaction hash to the block explorer, or returns the bare hash when no explorer is known.
func (n NetworkDefinition) TxURL(txHash string) string {
	if n.BlockExplorerURL == "" {
		return txHash
	}
	return strings.TrimRight(n.BlockExplorerURL, "/") + "/tx/" + txHash
}

// AddChainParams is the wallet_addEthereumChain request object (EIP-3085).
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// AddChainParamsFor builds the wallet_addEthereumChain payload for a network definition.
func AddChainParamsFor(n NetworkDefinition) AddChainParams {
	params := AddChainParams{
		ChainID:        n.ChainIDHex(),
		ChainName:      n.Name,
		NativeCurrency: n.NativeCurrency,
		RPCURLs:        n.RPCURLs(),
	}
	if n.BlockExplorerURL != "" {
		params.BlockExplorerURLs = []string{strings.TrimRight(n.BlockExplorerURL, "/") + "/"}
	}
	return params
}
