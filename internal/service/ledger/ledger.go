package ledger

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/cache"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/monitor"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const balanceHintTTL = 24 * time.Hour

// Options 构造参数；Seed 与 PublicKey 二选一
type Options struct {
	Asset types.Asset
	// Seed 十六进制 BIP-39 种子，提供时钱包处于解锁状态
	Seed string
	// PublicKey PublicKey() 的输出或十六进制公钥，只读钱包
	PublicKey          string
	DerivationPath     string
	ChainID            int64
	NetworkID          int64
	FeeKind            fee.Kind
	GasLimit           uint64
	MinConfirmations   int64
	ReplaceByFeeFactor float64
	ExplorerTxURL      string

	API     indexer.API
	Cache   cache.Cache
	Metrics *monitor.Metrics
	Logger  *zap.Logger
}

// Ledger 单地址账本
//
// 锁顺序: opMu -> mu。opMu 串行化 Create* / SendTx / Load 合并，
// mu 保护字段读写，pageMu 串行化历史分页。
// stateGen 在余额或 nonce 被记账时递增，cursorGen 在游标重置时递增。
type Ledger struct {
	opMu   sync.Mutex
	mu     sync.Mutex
	pageMu sync.Mutex

	api     indexer.API
	cache   cache.Cache
	metrics *monitor.Metrics
	log     *zap.Logger

	asset     types.Asset
	address   string
	pubKey    *ecdsa.PublicKey
	key       *ecdsa.PrivateKey
	path      string
	chainID   int64
	networkID int64
	explorer  string
	rbfFactor float64
	minConf   int64

	balance            *big.Int
	confirmedBalance   *big.Int
	nativeBalance      *big.Int
	txCount            uint64
	cursor             string
	cursorGen          uint64
	stateGen           uint64
	gasLimit           uint64
	fee                fee.Model
	maxReplaceByFeeGas *big.Int
}

func New(opts Options) (*Ledger, error) {
	if opts.API == nil {
		return nil, errors.New("ledger: indexer API is required")
	}
	l := newLedger(opts)

	switch {
	case opts.Seed != "":
		key, err := deriveKey(opts.Seed, l.path)
		if err != nil {
			return nil, err
		}
		l.key = key
		l.pubKey = &key.PublicKey
	case opts.PublicKey != "":
		pub, path, err := parsePublicKey(opts.PublicKey)
		if err != nil {
			return nil, err
		}
		l.pubKey = pub
		if path != "" {
			l.path = path
		}
	default:
		return nil, &errno.WalletError{Errno: errno.ErrInvalidPublicKey, Details: "seed or public key is required"}
	}
	l.address = addressOf(l.pubKey)
	l.balance = l.cachedBalance()

	l.log = l.log.With(zap.String("address", l.address), zap.String("asset", l.asset.Key()))
	return l, nil
}

func newLedger(opts Options) *Ledger {
	l := &Ledger{
		api:                opts.API,
		cache:              opts.Cache,
		metrics:            opts.Metrics,
		log:                opts.Logger,
		asset:              opts.Asset,
		path:               opts.DerivationPath,
		chainID:            opts.ChainID,
		networkID:          opts.NetworkID,
		explorer:           opts.ExplorerTxURL,
		rbfFactor:          opts.ReplaceByFeeFactor,
		minConf:            opts.MinConfirmations,
		gasLimit:           opts.GasLimit,
		balance:            new(big.Int),
		confirmedBalance:   new(big.Int),
		nativeBalance:      new(big.Int),
		fee:                fee.Zero(opts.FeeKind),
		maxReplaceByFeeGas: new(big.Int),
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	if l.asset.Symbol == "" && !l.asset.IsToken() {
		l.asset = types.NativeAsset("ETH")
	}
	if l.path == "" {
		l.path = DefaultDerivationPath
	}
	if l.chainID == 0 {
		l.chainID = DefaultChainID
	}
	if l.networkID == 0 {
		l.networkID = l.chainID
	}
	if l.rbfFactor <= 1 {
		l.rbfFactor = DefaultReplaceByFeeFactor
	}
	if l.minConf <= 0 {
		l.minConf = DefaultMinConfirmations
	}
	if l.gasLimit == 0 {
		l.gasLimit = DefaultGasLimit
		if l.asset.IsToken() {
			l.gasLimit = DefaultTokenGasLimit
		}
	}
	return l
}

// loadAttempts 合并前状态被 SendTx 改动时的重读次数，最后一次持 opMu 读取
const loadAttempts = 3

type loadResult struct {
	bal, native *indexer.Balance
	count       uint64
	quote       fee.Model
}

// Load 并发读取余额、nonce、报价（代币钱包另读原生币余额），全部成功才合并。
// 读取期间 stateGen 变化说明有交易已记账，丢弃这次结果重读，避免 nonce 回退。
func (l *Ledger) Load(ctx context.Context) error {
	start := time.Now()

	var res *loadResult
	for attempt := 1; ; attempt++ {
		exclusive := attempt >= loadAttempts
		if exclusive {
			l.opMu.Lock()
		}
		gen := l.generation()

		var err error
		res, err = l.fetchState(ctx)
		if err != nil {
			if exclusive {
				l.opMu.Unlock()
			}
			l.log.Error("load wallet failed", zap.Error(err))
			return err
		}

		if !exclusive {
			l.opMu.Lock()
		}
		if l.generation() == gen {
			break
		}
		l.opMu.Unlock()
		l.log.Debug("wallet state changed during load, retrying", zap.Int("attempt", attempt))
	}

	l.mu.Lock()
	l.balance = orZero(res.bal.Balance)
	l.confirmedBalance = orZero(res.bal.ConfirmedBalance)
	l.txCount = res.count
	l.cursor = ""
	l.cursorGen++
	l.stateGen++
	l.setFeeLocked(res.quote)
	if res.native != nil {
		l.nativeBalance = minBig(res.native.ConfirmedBalance, res.native.Balance)
	}
	balance := clone(l.balance)
	l.mu.Unlock()
	l.opMu.Unlock()

	l.storeBalanceHint(ctx, balance)
	l.metrics.RecordLoad(time.Since(start))
	l.metrics.RecordBalance(l.asset.Key(), "balance", toFloat(balance))
	l.log.Info("wallet loaded",
		zap.String("balance", balance.String()),
		zap.Uint64("tx_count", res.count),
	)
	return nil
}

func (l *Ledger) fetchState(ctx context.Context) (*loadResult, error) {
	res := &loadResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if l.asset.IsToken() {
			res.bal, err = l.api.GetTokenBalance(gctx, l.asset.ContractAddress, l.address, l.minConf)
		} else {
			res.bal, err = l.api.GetBalance(gctx, l.address, l.minConf)
		}
		return err
	})
	g.Go(func() (err error) {
		res.count, err = l.api.GetTxCount(gctx, l.address)
		return err
	})
	g.Go(func() (err error) {
		res.quote, err = l.api.GetFeeQuote(gctx, l.feeKind())
		return err
	})
	if l.asset.IsToken() {
		g.Go(func() (err error) {
			res.native, err = l.api.GetBalance(gctx, l.address, l.minConf)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (l *Ledger) feeKind() fee.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fee.Kind()
}

func (l *Ledger) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateGen
}

// Update 只刷新报价和 RBF 上限
func (l *Ledger) Update(ctx context.Context) error {
	quote, err := l.api.GetFeeQuote(ctx, l.feeKind())
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.setFeeLocked(quote)
	l.mu.Unlock()
	return nil
}

func (l *Ledger) setFeeLocked(quote fee.Model) {
	l.fee = quote
	l.maxReplaceByFeeGas = new(big.Int).Mul(fee.Cap(quote), big.NewInt(maxFeeMultiplier))

	switch q := quote.(type) {
	case fee.Legacy:
		l.metrics.RecordFeeQuote("gas_price", toFloat(q.GasPrice))
	case fee.FeeMarket:
		l.metrics.RecordFeeQuote("max_fee_per_gas", toFloat(q.MaxFeePerGas))
		l.metrics.RecordFeeQuote("max_priority_fee_per_gas", toFloat(q.MaxPriorityFeePerGas))
	}
}

// History 一页归一化后的历史
type History struct {
	Txs     []*types.NormalizedTx `json:"txs"`
	HasMore bool                  `json:"has_more"`
	Cursor  string                `json:"cursor,omitempty"`
}

// LoadTxs 读取下一页历史并推进游标；期间发生 Load 时不推进
func (l *Ledger) LoadTxs(ctx context.Context) (*History, error) {
	l.pageMu.Lock()
	defer l.pageMu.Unlock()

	l.mu.Lock()
	st := l.stateLocked()
	gen := l.cursorGen
	l.mu.Unlock()

	var (
		page *indexer.TxPage
		err  error
	)
	if l.asset.IsToken() {
		page, err = l.api.GetTokenTxPage(ctx, l.asset.ContractAddress, l.address, st.Cursor)
	} else {
		page, err = l.api.GetTxPage(ctx, l.address, st.Cursor)
	}
	if err != nil {
		return nil, err
	}

	history := &History{HasMore: page.HasMore, Cursor: page.Cursor, Txs: make([]*types.NormalizedTx, 0, len(page.Txs))}
	for i := range page.Txs {
		history.Txs = append(history.Txs, Normalize(&page.Txs[i], &st))
	}

	l.mu.Lock()
	if l.cursorGen == gen {
		l.cursor = page.Cursor
	}
	l.mu.Unlock()
	return history, nil
}

// Transaction 读取并归一化单笔交易，用于选择替换目标
func (l *Ledger) Transaction(ctx context.Context, txID string) (*types.NormalizedTx, error) {
	raw, err := l.api.GetTransaction(ctx, txID, l.address)
	if err != nil {
		return nil, err
	}
	st := l.Snapshot()
	return Normalize(raw, &st), nil
}

// CreateTx 构建待签名转账，不修改状态
func (l *Ledger) CreateTx(to string, value *big.Int) (*PendingTx, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	st := l.Snapshot()
	u, err := BuildTransfer(to, value, &st)
	if err != nil {
		l.recordRejection(err)
		return nil, err
	}
	return &PendingTx{Unsigned: u, sign: l.signWithWallet}, nil
}

// CreateReplacement 为未确认交易构建 RBF 替换
func (l *Ledger) CreateReplacement(orig *types.NormalizedTx) (*PendingTx, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	st := l.Snapshot()
	u, delta, err := BuildReplacement(orig, &st)
	if err != nil {
		l.recordRejection(err)
		return nil, err
	}
	return &PendingTx{Unsigned: u, AmountDelta: delta, sign: l.signWithWallet}, nil
}

// Sign 对外部构建的待签名交易签名，要求钱包已解锁
func (l *Ledger) Sign(u *types.UnsignedTransaction) (*SignedTx, error) {
	tx, err := l.signWithWallet(u)
	if err != nil {
		return nil, err
	}
	return &SignedTx{Tx: tx, Replaces: u.Replaces}, nil
}

func (l *Ledger) signWithWallet(u *types.UnsignedTransaction) (*ethtypes.Transaction, error) {
	l.mu.Lock()
	key := l.key
	l.mu.Unlock()
	if key == nil {
		return nil, errno.ErrWalletLocked
	}
	return signWith(key, u)
}

// SendTx 广播后更新本地状态；任何一步失败都不修改状态
func (l *Ledger) SendTx(ctx context.Context, stx *SignedTx) (*types.NormalizedTx, error) {
	raw, err := stx.Raw()
	if err != nil {
		return nil, err
	}

	l.opMu.Lock()
	defer l.opMu.Unlock()

	kind := "transfer"
	var replaced *types.NormalizedTx
	if stx.Replaces != nil {
		kind = "replacement"
		if replaced, err = l.verifyReplaced(ctx, stx); err != nil {
			l.recordRejection(err)
			return nil, err
		}
	}

	txID, err := l.api.SubmitRawTransaction(ctx, raw)
	l.metrics.RecordTxSent(l.asset.Key(), kind, err)
	if err != nil {
		l.log.Error("submit transaction failed", zap.String("tx_hash", stx.Hash()), zap.Error(err))
		return nil, err
	}
	if txID == "" {
		txID = stx.Hash()
	}

	var rec *types.NormalizedTx
	if l.asset.IsToken() {
		rec, err = l.processTokenTx(txID, stx.Tx, replaced)
	} else {
		rec, err = l.processTx(ctx, txID, replaced)
	}
	if err != nil {
		return nil, fmt.Errorf("tx %s submitted but not applied locally: %w", txID, err)
	}

	l.mu.Lock()
	balance := clone(l.balance)
	l.mu.Unlock()
	l.storeBalanceHint(ctx, balance)

	l.log.Info("transaction sent",
		zap.String("tx_id", txID),
		zap.String("kind", kind),
		zap.String("balance", balance.String()),
	)
	return rec, nil
}

// verifyReplaced 被替换交易以索引服务记录为准：同一 nonce、本钱包发出、尚未确认。
// 调用方提供的 Replaces 只用来定位，金额和手续费从不直接采信。
func (l *Ledger) verifyReplaced(ctx context.Context, stx *SignedTx) (*types.NormalizedTx, error) {
	claimed := stx.Replaces
	nonce := stx.Tx.Nonce()
	if claimed.ID == "" || claimed.Nonce != nonce {
		return nil, &errno.WalletError{Errno: errno.ErrInvalidTxID,
			Details: fmt.Sprintf("replaced tx nonce %d does not match tx nonce %d", claimed.Nonce, nonce)}
	}

	raw, err := l.api.GetTransaction(ctx, claimed.ID, l.address)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	st := l.stateLocked()
	l.mu.Unlock()
	orig := Normalize(raw, &st)

	switch {
	case orig.Nonce != nonce:
		return nil, &errno.WalletError{Errno: errno.ErrInvalidTxID,
			Details: fmt.Sprintf("replaced tx %s has nonce %d, tx nonce %d", orig.ID, orig.Nonce, nonce)}
	case !address.Equal(orig.From, l.address):
		return nil, &errno.WalletError{Errno: errno.ErrInvalidTxID, Details: "replaced tx was not sent by this wallet"}
	case orig.Confirmed:
		return nil, &errno.WalletError{Errno: errno.ErrInvalidTxID, Details: "replaced tx is already confirmed"}
	}
	return orig, nil
}

// processTx 原生币：以索引服务记录为准对账，replaced 为已核实的原交易
func (l *Ledger) processTx(ctx context.Context, txID string, replaced *types.NormalizedTx) (*types.NormalizedTx, error) {
	raw, err := l.api.GetTransaction(ctx, txID, l.address)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.stateLocked()
	hist := Normalize(raw, &st)

	balance := new(big.Int).Set(l.balance)
	// 先撤销被替换交易的预扣
	if rep := replaced; rep != nil {
		balance.Sub(balance, orZero(rep.Amount))
		balance.Add(balance, orZero(rep.MaxFee))
	}
	fromWallet := address.Equal(hist.From, l.address)
	if fromWallet {
		balance.Sub(balance, hist.MaxFee)
	}
	// 清扫到第三方的导入交易与本钱包无关
	if fromWallet || address.Equal(hist.To, l.address) {
		balance.Add(balance, hist.Amount)
	}

	l.balance = balance
	if fromWallet && replaced == nil {
		l.txCount++
	}
	l.stateGen++
	return hist, nil
}

// processTokenTx 代币：直接解码签名交易，不再请求网络
func (l *Ledger) processTokenTx(txID string, tx *ethtypes.Transaction, replaced *types.NormalizedTx) (*types.NormalizedTx, error) {
	to, value, err := DecodeTransfer(tx.Data())
	if err != nil {
		return nil, err
	}
	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, fmt.Errorf("recover sender: %w", err)
	}
	from := strings.ToLower(sender.Hex())

	amount := new(big.Int).Set(value)
	switch {
	case address.Equal(from, to):
		amount.SetInt64(0)
	case address.Equal(from, l.address):
		amount.Neg(amount)
	}
	maxFee := new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), tx.GasFeeCap())

	l.mu.Lock()
	defer l.mu.Unlock()

	fromWallet := address.Equal(from, l.address)
	if rep := replaced; rep != nil {
		// 替换交易：代币金额已在原交易中记过，只补扣新增的手续费
		if fromWallet {
			extra := new(big.Int).Sub(maxFee, orZero(rep.MaxFee))
			l.nativeBalance = new(big.Int).Sub(l.nativeBalance, extra)
		}
	} else {
		if fromWallet || address.Equal(to, l.address) {
			l.balance = new(big.Int).Add(l.balance, amount)
		}
		if fromWallet {
			l.nativeBalance = new(big.Int).Sub(l.nativeBalance, maxFee)
			l.txCount++
		}
	}
	l.stateGen++

	rec := &types.NormalizedTx{
		ID:         txID,
		Amount:     amount,
		Value:      value,
		Timestamp:  time.Now().UnixMilli(),
		MinConf:    l.minConf,
		Fee:        new(big.Int).Set(UnknownFee),
		MaxFee:     maxFee,
		GasPrice:   tx.GasFeeCap(),
		GasLimit:   tx.Gas(),
		Status:     true,
		From:       from,
		To:         to,
		Token:      true,
		IsIncoming: address.Equal(to, l.address) && !address.Equal(from, to),
		Nonce:      tx.Nonce(),
		Input:      hexutil.Encode(tx.Data()),
	}
	if tx.Type() == ethtypes.DynamicFeeTxType {
		rec.MaxFeePerGas = tx.GasFeeCap()
		rec.MaxPriorityFeePerGas = tx.GasTipCap()
	}
	return rec, nil
}

// Lock 丢弃签名私钥，余额等状态不受影响
func (l *Ledger) Lock() {
	l.mu.Lock()
	l.key = nil
	l.mu.Unlock()
}

// Unlock 种子派生出的地址必须与当前钱包一致
func (l *Ledger) Unlock(seed string) error {
	key, err := deriveKey(seed, l.path)
	if err != nil {
		return err
	}
	if addressOf(&key.PublicKey) != l.address {
		return &errno.WalletError{Errno: errno.ErrInvalidSeed, Details: "seed does not belong to this wallet"}
	}
	l.mu.Lock()
	l.key = key
	l.mu.Unlock()
	return nil
}

func (l *Ledger) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key == nil
}

// PublicKey JSON {pub_key, path}，可用于构造只读钱包
func (l *Ledger) PublicKey() string {
	return encodePublicKey(l.pubKey, l.path)
}

func (l *Ledger) Address() string {
	return l.address
}

func (l *Ledger) Asset() types.Asset {
	return l.asset
}

// DefaultFee gasLimit × 当前报价
func (l *Ledger) DefaultFee() *big.Int {
	st := l.Snapshot()
	return st.DefaultFee()
}

// MaxAmount 扣除手续费后的最大可发送金额，不小于 0
func (l *Ledger) MaxAmount() *big.Int {
	st := l.Snapshot()
	return clampZero(new(big.Int).Sub(orZero(st.Balance), st.TxFee()))
}

// ExportPrivateKeys CSV: address,privatekey
func (l *Ledger) ExportPrivateKeys() (string, error) {
	l.mu.Lock()
	key := l.key
	l.mu.Unlock()
	if key == nil {
		return "", errno.ErrWalletLocked
	}
	return "address,privatekey\n" + l.address + "," + hex.EncodeToString(crypto.FromECDSA(key)), nil
}

// TxURL 区块浏览器链接，未配置时为空
func (l *Ledger) TxURL(txID string) string {
	switch {
	case l.explorer == "":
		return ""
	case strings.Contains(l.explorer, "%s"):
		return fmt.Sprintf(l.explorer, txID)
	default:
		return l.explorer + txID
	}
}

// Snapshot 当前状态的深拷贝
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

func (l *Ledger) stateLocked() State {
	return State{
		Address:            l.address,
		Asset:              l.asset,
		Balance:            clone(l.balance),
		ConfirmedBalance:   clone(l.confirmedBalance),
		NativeBalance:      clone(l.nativeBalance),
		TxCount:            l.txCount,
		Cursor:             l.cursor,
		GasLimit:           l.gasLimit,
		Fee:                l.fee,
		MaxReplaceByFeeGas: clone(l.maxReplaceByFeeGas),
		MinConfirmations:   l.minConf,
		ReplaceByFeeFactor: l.rbfFactor,
		ChainID:            l.chainID,
		NetworkID:          l.networkID,
		DerivationPath:     l.path,
		Locked:             l.key == nil,
	}
}

func (l *Ledger) recordRejection(err error) {
	code, _ := errno.Decode(err)
	reason := strconv.Itoa(code)
	l.metrics.RecordValidationFailure(l.asset.Key(), reason)
	l.log.Debug("transaction rejected", zap.Error(err))
}

type balanceHint struct {
	Balance string `json:"balance"`
}

func (l *Ledger) balanceKey() string {
	return "balance:" + l.asset.Key() + ":" + l.address
}

// cachedBalance 构造时用上次缓存的余额作为初始值
func (l *Ledger) cachedBalance() *big.Int {
	if l.cache == nil {
		return new(big.Int)
	}
	var hint balanceHint
	if err := l.cache.Get(context.Background(), l.balanceKey(), &hint); err != nil {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(hint.Balance, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

func (l *Ledger) storeBalanceHint(ctx context.Context, balance *big.Int) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Set(ctx, l.balanceKey(), balanceHint{Balance: balance.String()}, balanceHintTTL); err != nil {
		l.log.Warn("store balance hint failed", zap.Error(err))
	}
}

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(orZero(v)).Float64()
	return f
}
