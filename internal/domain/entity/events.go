package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ValueChange is a decoded ValueChanged(address indexed setter, uint256 newValue) log.
type ValueChange struct {
	Setter      common.Address `json:"setter"`
	NewValue    *big.Int       `json:"newValue"`
	BlockNumber uint64         `json:"blockNumber"`
	TxHash      common.Hash    `json:"txHash"`
}

// WalletEventType identifies a wallet-level change notification.
type WalletEventType int

const (
	// AccountsChanged mirrors the EIP-1193 "accountsChanged" event.
	AccountsChanged WalletEventType = iota
	// ChainChanged mirrors the EIP-1193 "chainChanged" event.
	ChainChanged
)

func (t WalletEventType) String() string {
	if t == ChainChanged {
		return "chainChanged"
	}
	return "accountsChanged"
}

// WalletEvent is delivered by the wallet bridge whenever the active accounts or chain change.
type WalletEvent struct {
	Type       WalletEventType
	Accounts   []common.Address
	ChainIDHex string
}
