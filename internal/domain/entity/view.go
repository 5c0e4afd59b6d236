package entity

import "time"

// ViewState is what the front end displays. It replaces the DOM text regions and buttons.
type ViewState struct {
	NetworkLabel    string          `json:"networkLabel"`
	ContractAddress string          `json:"contractAddress"`
	CurrentValue    string          `json:"currentValue"`
	TxStatus        string          `json:"txStatus,omitempty"`
	Account         string          `json:"account,omitempty"`
	SetEnabled      bool            `json:"setEnabled"`
	GetEnabled      bool            `json:"getEnabled"`
	Busy            bool            `json:"busy"`
	State           ConnectionState `json:"state"`
}

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-facing message, the equivalent of a modal alert.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Time    time.Time   `json:"time"`
}
