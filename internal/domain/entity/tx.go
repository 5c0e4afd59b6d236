package entity

import "time"

// TxStatus is the lifecycle of a submitted "set" transaction.
type TxStatus string

const (
	TxMining    TxStatus = "mining"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Display texts for the tx status region.
const (
	TxStatusMiningText    = "mining…"
	TxStatusConfirmedText = "confirmed ✅"
	TxStatusFailedText    = "failed ❌"
)

// TxRecord is the outcome of a "set" action.
type TxRecord struct {
	Hash        string    `json:"hash"`
	Value       string    `json:"value"`
	Status      TxStatus  `json:"status"`
	BlockNumber uint64    `json:"blockNumber,omitempty"`
	ExplorerURL string    `json:"explorerUrl,omitempty"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}
