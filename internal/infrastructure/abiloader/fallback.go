package abiloader

import (
	"bytes"
	"fmt"
	"sync"

	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FallbackABI covers exactly what the client needs: get, set and ValueChanged.
const FallbackABI = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "setter", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "newValue", "type": "uint256"}
    ],
    "name": "ValueChanged",
    "type": "event"
  },
  {
    "inputs": [],
    "name": "get",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "newValue", "type": "uint256"}],
    "name": "set",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	fallbackDescriptor entity.InterfaceDescriptor
	fallbackOnce       sync.Once
)

// Fallback returns a copy of the embedded descriptor.
func Fallback() *entity.InterfaceDescriptor {
	fallbackOnce.Do(func() {
		parsed, err := abi.JSON(bytes.NewReader([]byte(FallbackABI)))
		if err != nil {
			// The embedded ABI is a constant, so this cannot fail at runtime.
			panic(fmt.Sprintf("failed to parse fallback ABI: %v", err))
		}
		fallbackDescriptor = entity.InterfaceDescriptor{
			Raw:    []byte(FallbackABI),
			Parsed: parsed,
			Source: entity.ABISourceFallback,
		}
	})
	d := fallbackDescriptor
	return &d
}
