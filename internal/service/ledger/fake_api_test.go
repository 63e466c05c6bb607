package ledger

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// fakeAPI 内存索引服务；广播的交易会被解码成 RawTx 供回查，并计入发送方的 nonce
type fakeAPI struct {
	mu sync.Mutex

	balances      map[string]*indexer.Balance
	tokenBalances map[string]*indexer.Balance
	txCounts      map[string]uint64
	quote         fee.Model
	pages         map[string]*indexer.TxPage
	txs           map[string]*types.RawTx

	submitted []string
	submitErr error
	countErr  error
	getTxErr  error

	gates map[string]*gate
}

// gate 让某个方法在读完数据后停住，直到测试放行
type gate struct {
	entered chan struct{}
	release chan struct{}
}

// pause 只作用于 method 的下一次调用
func (f *fakeAPI) pause(method string) (entered <-chan struct{}, release chan<- struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &gate{entered: make(chan struct{}), release: make(chan struct{})}
	f.gates[method] = g
	return g.entered, g.release
}

// takeGateLocked 调用方持有 f.mu
func (f *fakeAPI) takeGateLocked(method string) *gate {
	g := f.gates[method]
	delete(f.gates, method)
	return g
}

func (g *gate) wait() {
	if g == nil {
		return
	}
	close(g.entered)
	<-g.release
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		balances:      map[string]*indexer.Balance{},
		tokenBalances: map[string]*indexer.Balance{},
		txCounts:      map[string]uint64{},
		quote:         fee.Legacy{GasPrice: big.NewInt(10)},
		pages:         map[string]*indexer.TxPage{},
		txs:           map[string]*types.RawTx{},
		gates:         map[string]*gate{},
	}
}

func (f *fakeAPI) setBalance(addr string, balance, confirmed int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[strings.ToLower(addr)] = &indexer.Balance{Balance: big.NewInt(balance), ConfirmedBalance: big.NewInt(confirmed)}
}

func (f *fakeAPI) setTokenBalance(addr string, balance, confirmed int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenBalances[strings.ToLower(addr)] = &indexer.Balance{Balance: big.NewInt(balance), ConfirmedBalance: big.NewInt(confirmed)}
}

func lookup(m map[string]*indexer.Balance, addr string) *indexer.Balance {
	if b, ok := m[strings.ToLower(addr)]; ok {
		return &indexer.Balance{Balance: new(big.Int).Set(b.Balance), ConfirmedBalance: new(big.Int).Set(b.ConfirmedBalance)}
	}
	return &indexer.Balance{Balance: new(big.Int), ConfirmedBalance: new(big.Int)}
}

func (f *fakeAPI) GetBalance(_ context.Context, address string, _ int64) (*indexer.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lookup(f.balances, address), nil
}

func (f *fakeAPI) GetTokenBalance(_ context.Context, _, address string, _ int64) (*indexer.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lookup(f.tokenBalances, address), nil
}

func (f *fakeAPI) GetTxCount(_ context.Context, address string) (uint64, error) {
	f.mu.Lock()
	if f.countErr != nil {
		f.mu.Unlock()
		return 0, f.countErr
	}
	count := f.txCounts[strings.ToLower(address)]
	g := f.takeGateLocked("GetTxCount")
	f.mu.Unlock()

	g.wait()
	return count, nil
}

func (f *fakeAPI) GetFeeQuote(context.Context, fee.Kind) (fee.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quote, nil
}

func (f *fakeAPI) GetTxPage(_ context.Context, _, cursor string) (*indexer.TxPage, error) {
	f.mu.Lock()
	page, ok := f.pages[cursor]
	if !ok {
		page = &indexer.TxPage{}
	}
	g := f.takeGateLocked("GetTxPage")
	f.mu.Unlock()

	g.wait()
	return page, nil
}

func (f *fakeAPI) GetTokenTxPage(ctx context.Context, _, address, cursor string) (*indexer.TxPage, error) {
	return f.GetTxPage(ctx, address, cursor)
}

func (f *fakeAPI) SubmitRawTransaction(_ context.Context, rawTx string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	b, err := hexutil.Decode(rawTx)
	if err != nil {
		return "", err
	}
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(b); err != nil {
		return "", err
	}
	from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return "", err
	}

	raw := &types.RawTx{
		ID:       tx.Hash().Hex(),
		From:     strings.ToLower(from.Hex()),
		To:       strings.ToLower(tx.To().Hex()),
		Value:    decimal.NewFromBigInt(tx.Value(), 0),
		Gas:      decimal.NewNullDecimal(decimal.NewFromInt(int64(tx.Gas()))),
		GasPrice: decimal.NewNullDecimal(decimal.NewFromBigInt(tx.GasPrice(), 0)),
		Nonce:    tx.Nonce(),
		Input:    hexutil.Encode(tx.Data()),
	}
	if tx.Type() == ethtypes.DynamicFeeTxType {
		raw.MaxFeePerGas = decimal.NewNullDecimal(decimal.NewFromBigInt(tx.GasFeeCap(), 0))
		raw.MaxPriorityFeePerGas = decimal.NewNullDecimal(decimal.NewFromBigInt(tx.GasTipCap(), 0))
	}
	if _, seen := f.txs[raw.ID]; !seen && tx.Nonce() >= f.txCounts[raw.From] {
		f.txCounts[raw.From] = tx.Nonce() + 1
	}
	f.txs[raw.ID] = raw
	f.submitted = append(f.submitted, rawTx)
	return raw.ID, nil
}

func (f *fakeAPI) GetTransaction(_ context.Context, txID, _ string) (*types.RawTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getTxErr != nil {
		return nil, f.getTxErr
	}
	raw, ok := f.txs[txID]
	if !ok {
		return nil, errno.ErrTxNotFound
	}
	cp := *raw
	return &cp, nil
}
