// Package ethtest is an in-process stand-in for a node and an EIP-1193 wallet, served over
// go-ethereum's rpc package. It implements just enough of the eth and wallet namespaces for
// the storage contract: calls, receipts, logs, log subscriptions, account access and network switching.
package ethtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

const storageABIJSON = `[
 {"anonymous":false,"inputs":[{"indexed":true,"name":"setter","type":"address"},{"indexed":false,"name":"newValue","type":"uint256"}],"name":"ValueChanged","type":"event"},
 {"inputs":[],"name":"get","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
 {"inputs":[{"name":"newValue","type":"uint256"}],"name":"set","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var storageABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(storageABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// ProviderError is a JSON-RPC error with an EIP-1193 style code.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string  { return e.Message }
func (e *ProviderError) ErrorCode() int { return e.Code }

// Common wallet errors.
var (
	ErrUserRejected      = &ProviderError{Code: 4001, Message: "User rejected the request."}
	ErrUnrecognizedChain = &ProviderError{Code: 4902, Message: "Unrecognized chain ID. Try adding the chain using wallet_addEthereumChain first."}
)

// Node is a single-contract chain plus wallet. All fields are guarded by mu.
type Node struct {
	mu sync.Mutex

	chainID     uint64
	knownChains map[uint64]bool
	accounts    []common.Address
	contract    common.Address
	value       *big.Int
	head        uint64
	logs        []types.Log
	receipts    map[common.Hash]*types.Receipt
	txCount     uint64
	calls       []string
	subs        map[*logSub]struct{}

	// failure injection
	requestAccountsErr error
	switchErr          error
	addErr             error
	callErr            error
	sendErr            error
	revertNextTx       bool

	server *rpc.Server
}

type logSub struct {
	crit filterArgs
	ch   chan types.Log
}

// NewNode creates a node on chainID holding the storage contract at contract with value 0.
func NewNode(chainID uint64, contract common.Address) *Node {
	n := &Node{
		chainID:     chainID,
		knownChains: map[uint64]bool{chainID: true},
		contract:    contract,
		value:       new(big.Int),
		head:        1,
		receipts:    make(map[common.Hash]*types.Receipt),
		subs:        make(map[*logSub]struct{}),
	}
	n.server = rpc.NewServer()
	if err := n.server.RegisterName("eth", &ethAPI{n: n}); err != nil {
		panic(err)
	}
	if err := n.server.RegisterName("wallet", &walletAPI{n: n}); err != nil {
		panic(err)
	}
	return n
}

// DialInProc connects a client to the node without a transport. Subscriptions are supported.
func (n *Node) DialInProc() *rpc.Client {
	return rpc.DialInProc(n.server)
}

// NewHTTPServer exposes the node over HTTP. Subscriptions are not available on this transport.
func (n *Node) NewHTTPServer() *httptest.Server {
	return httptest.NewServer(n.server)
}

// Stop shuts the RPC server down.
func (n *Node) Stop() {
	n.server.Stop()
}

// WithAccounts sets the accounts handed out by eth_requestAccounts and eth_accounts.
func (n *Node) WithAccounts(accounts ...common.Address) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accounts = accounts
	return n
}

// KnowChain makes wallet_switchEthereumChain accept chainID.
func (n *Node) KnowChain(chainID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.knownChains[chainID] = true
}

// SetChainID changes the active chain as if the user switched in the wallet UI.
func (n *Node) SetChainID(chainID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.knownChains[chainID] = true
	n.chainID = chainID
}

// ChainID returns the active chain.
func (n *Node) ChainID() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chainID
}

// SetValue sets the stored value without emitting an event.
func (n *Node) SetValue(v int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.value = big.NewInt(v)
}

// Value returns the stored value.
func (n *Node) Value() *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(big.Int).Set(n.value)
}

// FailRequestAccounts makes eth_requestAccounts return err.
func (n *Node) FailRequestAccounts(err error) { n.inject(func() { n.requestAccountsErr = err }) }

// FailSwitch makes wallet_switchEthereumChain return err.
func (n *Node) FailSwitch(err error) { n.inject(func() { n.switchErr = err }) }

// FailAdd makes wallet_addEthereumChain return err.
func (n *Node) FailAdd(err error) { n.inject(func() { n.addErr = err }) }

// FailCall makes eth_call return err.
func (n *Node) FailCall(err error) { n.inject(func() { n.callErr = err }) }

// FailSend makes eth_sendTransaction return err.
func (n *Node) FailSend(err error) { n.inject(func() { n.sendErr = err }) }

// RevertNextTx mines the next transaction with a failed receipt.
func (n *Node) RevertNextTx() { n.inject(func() { n.revertNextTx = true }) }

func (n *Node) inject(f func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	f()
}

// Calls returns the RPC methods served so far, in order.
func (n *Node) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

// CallCount counts how often method was served.
func (n *Node) CallCount(method string) int {
	count := 0
	for _, c := range n.Calls() {
		if c == method {
			count++
		}
	}
	return count
}

func (n *Node) record(method string) {
	n.mu.Lock()
	n.calls = append(n.calls, method)
	n.mu.Unlock()
}

// EmitValueChanged mines a block that changes the value as if another party called set.
func (n *Node) EmitValueChanged(setter common.Address, v int64) common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mineSetLocked(setter, big.NewInt(v), false)
}

func (n *Node) mineSetLocked(from common.Address, v *big.Int, revert bool) common.Hash {
	n.txCount++
	n.head++
	txHash := crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d", n.txCount)))
	blockHash := crypto.Keccak256Hash([]byte(fmt.Sprintf("block-%d", n.head)))

	receipt := &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 26000,
		GasUsed:           26000,
		TxHash:            txHash,
		BlockHash:         blockHash,
		BlockNumber:       new(big.Int).SetUint64(n.head),
		Logs:              []*types.Log{},
	}
	if revert {
		receipt.Status = types.ReceiptStatusFailed
		n.receipts[txHash] = receipt
		return txHash
	}

	n.value = new(big.Int).Set(v)
	data, err := storageABI.Events["ValueChanged"].Inputs.NonIndexed().Pack(v)
	if err != nil {
		panic(err)
	}
	lg := types.Log{
		Address:     n.contract,
		Topics:      []common.Hash{storageABI.Events["ValueChanged"].ID, common.BytesToHash(from.Bytes())},
		Data:        data,
		BlockNumber: n.head,
		TxHash:      txHash,
		BlockHash:   blockHash,
		Index:       uint(len(n.logs)),
	}
	n.logs = append(n.logs, lg)
	receipt.Logs = append(receipt.Logs, &lg)
	n.receipts[txHash] = receipt

	for s := range n.subs {
		if s.crit.matches(lg, n.head) {
			select {
			case s.ch <- lg:
			default:
			}
		}
	}
	return txHash
}

// TxArgs is the eth_call / eth_sendTransaction argument object.
type TxArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
	Value *hexutil.Big    `json:"value"`
	Gas   *hexutil.Uint64 `json:"gas"`
}

func (a TxArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

type filterArgs struct {
	Address   []common.Address `json:"address"`
	FromBlock *rpc.BlockNumber `json:"fromBlock"`
	ToBlock   *rpc.BlockNumber `json:"toBlock"`
	Topics    [][]common.Hash  `json:"topics"`
}

func (f filterArgs) matches(lg types.Log, head uint64) bool {
	if len(f.Address) > 0 {
		found := false
		for _, a := range f.Address {
			if a == lg.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.FromBlock != nil && *f.FromBlock >= 0 && lg.BlockNumber < uint64(*f.FromBlock) {
		return false
	}
	if f.ToBlock != nil && *f.ToBlock >= 0 && lg.BlockNumber > uint64(*f.ToBlock) {
		return false
	}
	for i, alternatives := range f.Topics {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(lg.Topics) {
			return false
		}
		ok := false
		for _, t := range alternatives {
			if t == lg.Topics[i] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

type ethAPI struct{ n *Node }

func (a *ethAPI) ChainId() *hexutil.Big {
	a.n.record("eth_chainId")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).SetUint64(a.n.chainID))
}

func (a *ethAPI) BlockNumber() hexutil.Uint64 {
	a.n.record("eth_blockNumber")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	return hexutil.Uint64(a.n.head)
}

func (a *ethAPI) Accounts() []common.Address {
	a.n.record("eth_accounts")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	return append([]common.Address{}, a.n.accounts...)
}

func (a *ethAPI) RequestAccounts() ([]common.Address, error) {
	a.n.record("eth_requestAccounts")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	if a.n.requestAccountsErr != nil {
		return nil, a.n.requestAccountsErr
	}
	return append([]common.Address{}, a.n.accounts...), nil
}

func (a *ethAPI) GetCode(addr common.Address, _ *string) hexutil.Bytes {
	a.n.record("eth_getCode")
	if addr == a.n.contract {
		return hexutil.Bytes{0x60, 0x80}
	}
	return hexutil.Bytes{}
}

func (a *ethAPI) Call(args TxArgs, _ *string) (hexutil.Bytes, error) {
	a.n.record("eth_call")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	if a.n.callErr != nil {
		return nil, a.n.callErr
	}
	if args.To == nil || *args.To != a.n.contract {
		return hexutil.Bytes{}, nil
	}
	if bytes.HasPrefix(args.data(), storageABI.Methods["get"].ID) {
		return storageABI.Methods["get"].Outputs.Pack(a.n.value)
	}
	return nil, errors.New("execution reverted")
}

func (a *ethAPI) SendTransaction(args TxArgs) (common.Hash, error) {
	a.n.record("eth_sendTransaction")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	if a.n.sendErr != nil {
		return common.Hash{}, a.n.sendErr
	}
	if args.To == nil || *args.To != a.n.contract {
		return common.Hash{}, errors.New("unknown recipient")
	}
	data := args.data()
	set := storageABI.Methods["set"]
	if !bytes.HasPrefix(data, set.ID) {
		return common.Hash{}, errors.New("execution reverted")
	}
	vals, err := set.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Hash{}, err
	}
	var from common.Address
	if args.From != nil {
		from = *args.From
	}
	revert := a.n.revertNextTx
	a.n.revertNextTx = false
	return a.n.mineSetLocked(from, vals[0].(*big.Int), revert), nil
}

func (a *ethAPI) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	a.n.record("eth_getTransactionReceipt")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	return a.n.receipts[hash]
}

func (a *ethAPI) GetLogs(crit filterArgs) []types.Log {
	a.n.record("eth_getLogs")
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	out := []types.Log{}
	for _, lg := range a.n.logs {
		if crit.matches(lg, a.n.head) {
			out = append(out, lg)
		}
	}
	return out
}

// Logs serves eth_subscribe("logs", crit).
func (a *ethAPI) Logs(ctx context.Context, crit filterArgs) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	s := &logSub{crit: crit, ch: make(chan types.Log, 16)}

	a.n.mu.Lock()
	a.n.subs[s] = struct{}{}
	a.n.mu.Unlock()
	a.n.record("eth_subscribe")

	go func() {
		defer func() {
			a.n.mu.Lock()
			delete(a.n.subs, s)
			a.n.mu.Unlock()
		}()
		for {
			select {
			case lg := <-s.ch:
				if err := notifier.Notify(sub.ID, lg); err != nil {
					return
				}
			case <-sub.Err():
				return
			}
		}
	}()
	return sub, nil
}

type walletAPI struct{ n *Node }

type switchArgs struct {
	ChainID string `json:"chainId"`
}

type addArgs struct {
	ChainID   string   `json:"chainId"`
	ChainName string   `json:"chainName"`
	RPCURLs   []string `json:"rpcUrls"`
}

func (w *walletAPI) SwitchEthereumChain(args switchArgs) error {
	w.n.record("wallet_switchEthereumChain")
	id, err := hexutil.DecodeUint64(strings.ToLower(args.ChainID))
	if err != nil {
		return &ProviderError{Code: -32602, Message: "invalid chainId"}
	}
	w.n.mu.Lock()
	defer w.n.mu.Unlock()
	if w.n.switchErr != nil {
		return w.n.switchErr
	}
	if !w.n.knownChains[id] {
		return ErrUnrecognizedChain
	}
	w.n.chainID = id
	return nil
}

func (w *walletAPI) AddEthereumChain(args addArgs) error {
	w.n.record("wallet_addEthereumChain")
	id, err := hexutil.DecodeUint64(strings.ToLower(args.ChainID))
	if err != nil || args.ChainName == "" || len(args.RPCURLs) == 0 {
		return &ProviderError{Code: -32602, Message: "invalid chain parameters"}
	}
	w.n.mu.Lock()
	defer w.n.mu.Unlock()
	if w.n.addErr != nil {
		return w.n.addErr
	}
	w.n.knownChains[id] = true
	w.n.chainID = id
	return nil
}
