package entity

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABISource tells where an interface descriptor came from.
type ABISource string

const (
	ABISourceRemote   ABISource = "remote"
	ABISourceFallback ABISource = "fallback"
)

// InterfaceDescriptor is a contract ABI in both raw and parsed form.
type InterfaceDescriptor struct {
	Raw    json.RawMessage
	Parsed abi.ABI
	Source ABISource
}
