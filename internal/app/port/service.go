package port

import (
	"context"
	"math/big"

	"storage_dapp/internal/domain/entity"
)

// ConnectionService re-runs the connect flow on demand.
type ConnectionService interface {
	Reconnect(ctx context.Context) error
}

// ActionService exposes the set and get controls.
type ActionService interface {
	Set(ctx context.Context, input string) (*entity.TxRecord, error)
	Get(ctx context.Context) (*big.Int, error)
	Tx(hash string) (entity.TxRecord, bool)
}
