package port

import "storage_dapp/internal/domain/entity"

// View is the display surface the services write to.
type View interface {
	SetNetworkLabel(label string)
	SetContractAddress(address string)
	SetAccount(account string)
	SetCurrentValue(value string)
	SetTxStatus(status string)
	SetControlsEnabled(set, get bool)
	SetBusy(busy bool)
	SetConnectionState(state entity.ConnectionState)
	Notify(level entity.NoticeLevel, message string)
	Snapshot() entity.ViewState
	Notices() []entity.Notice
}

// TxStore keeps recent transaction records for status lookups.
type TxStore interface {
	Put(record entity.TxRecord)
	Get(hash string) (entity.TxRecord, bool)
}
