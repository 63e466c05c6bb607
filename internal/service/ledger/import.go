package ledger

import (
	"context"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"
)

// GetImportTxOptions 读取外部私钥地址的余额和 nonce，同时刷新手续费报价
func (l *Ledger) GetImportTxOptions(ctx context.Context, privateKey string) (*ImportOptions, error) {
	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	from := addressOf(&key.PublicKey)
	if from == l.address {
		return nil, &errno.WalletError{Errno: errno.ErrInvalidPrivateKey, Details: "key belongs to this wallet"}
	}

	opts := &ImportOptions{PrivateKey: key, Address: from}
	var (
		bal, native *indexer.Balance
		quote       fee.Model
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if l.asset.IsToken() {
			bal, err = l.api.GetTokenBalance(gctx, l.asset.ContractAddress, from, l.minConf)
		} else {
			bal, err = l.api.GetBalance(gctx, from, l.minConf)
		}
		return err
	})
	g.Go(func() (err error) {
		opts.TxCount, err = l.api.GetTxCount(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		quote, err = l.api.GetFeeQuote(gctx, l.feeKind())
		return err
	})
	if l.asset.IsToken() {
		g.Go(func() (err error) {
			native, err = l.api.GetBalance(gctx, from, l.minConf)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.setFeeLocked(quote)
	l.mu.Unlock()

	opts.Amount = minBig(bal.ConfirmedBalance, bal.Balance)
	if native != nil {
		opts.NativeBalance = minBig(native.ConfirmedBalance, native.Balance)
	}
	return opts, nil
}

// CreateImportTx 构建清扫交易，把余额转入本钱包 (to 为空时) 或 to；
// 返回的 PendingTx 用外部私钥签名，与钱包是否锁定无关
func (l *Ledger) CreateImportTx(to string, opts *ImportOptions) (*PendingTx, error) {
	if opts == nil || opts.PrivateKey == nil {
		return nil, errno.ErrInvalidPrivateKey
	}
	if to == "" {
		to = l.address
	}
	st := l.Snapshot()
	u, err := BuildImport(to, opts, &st)
	if err != nil {
		l.recordRejection(err)
		return nil, err
	}
	key := opts.PrivateKey
	return &PendingTx{Unsigned: u, sign: func(u *types.UnsignedTransaction) (*ethtypes.Transaction, error) {
		return signWith(key, u)
	}}, nil
}
