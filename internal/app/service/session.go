package service

import (
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// Session is one successful connection: the state reached, the network and account in use,
// and the contract binding. It is never mutated; a reconnect replaces it with a new one.
type Session struct {
	State      entity.ConnectionState
	Network    entity.NetworkDefinition
	ChainIDHex string
	ABISource  entity.ABISource // where this session's contract interface came from
	Account    common.Address   // zero in read-only mode
	Contract   port.StorageContract
	Bridge     port.WalletBridge // nil in read-only mode
	CreatedAt  time.Time
}

// CanWrite reports whether "set" is available in this session.
func (s *Session) CanWrite() bool {
	return s != nil && s.State == entity.Connected && s.Contract != nil && s.Contract.CanWrite()
}

// SessionSource hands out the current session, or nil while disconnected.
type SessionSource interface {
	Session() *Session
}
