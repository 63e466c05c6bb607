package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/pkg/cache"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSeed    = "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4"
	testPath    = "m/44'/60'/0'/0/0"
	testAddress = "0x9858effd232b4033e47d90003d41ec34ecaeda94"
	recipient   = "0x3fe0de839ae303070a9a537c5494195e40e1ce71"
	tokenAddr   = "0xdac17f958d2ee523a2206206994597c13d831ec7"
)

func newTestLedger(t *testing.T, api *fakeAPI, mutate ...func(*Options)) *Ledger {
	t.Helper()
	opts := Options{
		Asset:          types.NativeAsset("ETH"),
		Seed:           testSeed,
		DerivationPath: testPath,
		ExplorerTxURL:  "https://etherscan.io/tx/%s",
		API:            api,
	}
	for _, m := range mutate {
		m(&opts)
	}
	l, err := New(opts)
	require.NoError(t, err)
	return l
}

func loadedLedger(t *testing.T) (*Ledger, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	api.setBalance(testAddress, 1_000_000_000, 1_000_000_000)
	l := newTestLedger(t, api)
	require.NoError(t, l.Load(context.Background()))
	return l, api
}

func TestNewDerivesAddressAndDefaults(t *testing.T) {
	l := newTestLedger(t, newFakeAPI())

	assert.Equal(t, testAddress, l.Address())
	assert.False(t, l.IsLocked())

	st := l.Snapshot()
	assert.Equal(t, DefaultGasLimit, st.GasLimit)
	assert.Equal(t, DefaultMinConfirmations, st.MinConfirmations)
	assert.Equal(t, DefaultChainID, st.ChainID)
	assert.Equal(t, DefaultChainID, st.NetworkID)
	assert.Equal(t, DefaultReplaceByFeeFactor, st.ReplaceByFeeFactor)
	assert.Equal(t, 0, st.Balance.Sign())
}

func TestNewRequiresKeyMaterial(t *testing.T) {
	_, err := New(Options{API: newFakeAPI()})
	assert.True(t, errors.Is(err, errno.ErrInvalidPublicKey))

	_, err = New(Options{API: newFakeAPI(), Seed: "zz"})
	assert.True(t, errors.Is(err, errno.ErrInvalidSeed))

	_, err = New(Options{Seed: testSeed})
	assert.Error(t, err)
}

func TestPublicKeyBuildsReadOnlyWallet(t *testing.T) {
	signer := newTestLedger(t, newFakeAPI())
	pub := signer.PublicKey()
	assert.Contains(t, pub, `"path":"m/44'/60'/0'/0/0"`)

	api := newFakeAPI()
	api.setBalance(testAddress, 50_000_000, 50_000_000)
	watch, err := New(Options{API: api, PublicKey: pub})
	require.NoError(t, err)
	assert.Equal(t, testAddress, watch.Address())
	assert.True(t, watch.IsLocked())
	assert.Equal(t, testPath, watch.Snapshot().DerivationPath)

	require.NoError(t, watch.Load(context.Background()))
	p, err := watch.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	_, err = p.Sign()
	assert.True(t, errors.Is(err, errno.ErrWalletLocked))

	// 外部签名后仍可由只读钱包广播
	stx, err := signer.Sign(p.Unsigned)
	require.NoError(t, err)
	_, err = watch.SendTx(context.Background(), stx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), watch.Snapshot().TxCount)
}

func TestLoadMergesState(t *testing.T) {
	api := newFakeAPI()
	api.setBalance(testAddress, 900, 700)
	api.txCounts[testAddress] = 4
	api.quote = fee.Legacy{GasPrice: big.NewInt(3)}
	l := newTestLedger(t, api)

	require.NoError(t, l.Load(context.Background()))
	st := l.Snapshot()
	assert.Equal(t, int64(900), st.Balance.Int64())
	assert.Equal(t, int64(700), st.ConfirmedBalance.Int64())
	assert.Equal(t, uint64(4), st.TxCount)
	assert.Equal(t, int64(300), st.MaxReplaceByFeeGas.Int64())
	assert.Equal(t, int64(63000), l.DefaultFee().Int64())
}

func TestLoadIsAllOrNothing(t *testing.T) {
	l, api := loadedLedger(t)
	before := l.Snapshot()

	api.setBalance(testAddress, 1, 1)
	api.countErr = errno.Transport(errors.New("boom"))
	err := l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrTransport))

	after := l.Snapshot()
	assert.Equal(t, before.Balance.String(), after.Balance.String())
	assert.Equal(t, before.TxCount, after.TxCount)
}

func TestUpdateRefreshesQuoteOnly(t *testing.T) {
	l, api := loadedLedger(t)
	api.setBalance(testAddress, 1, 1)
	api.quote = fee.Legacy{GasPrice: big.NewInt(20)}

	require.NoError(t, l.Update(context.Background()))
	st := l.Snapshot()
	assert.True(t, fee.Equal(fee.Legacy{GasPrice: big.NewInt(20)}, st.Fee))
	assert.Equal(t, int64(2000), st.MaxReplaceByFeeGas.Int64())
	assert.Equal(t, int64(1_000_000_000), st.Balance.Int64())
}

func TestCreateTxLeavesStateUntouched(t *testing.T) {
	l, _ := loadedLedger(t)

	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.Unsigned.Nonce)
	assert.Equal(t, recipient, p.Unsigned.To)
	assert.Equal(t, testPath, p.Unsigned.DerivationPath)
	assert.Equal(t, int64(1_000_000_000), l.Snapshot().Balance.Int64())
}

func TestCreateTxValidationErrors(t *testing.T) {
	api := newFakeAPI()
	api.setBalance(testAddress, 500_000, 100_000)
	l := newTestLedger(t, api)
	require.NoError(t, l.Load(context.Background()))

	tests := []struct {
		name     string
		to       string
		value    int64
		want     errno.Errno
		details  string
		sendable int64
	}{
		{"invalid address", "0x123", 1000, errno.ErrInvalidAddress, "0x123", -1},
		{"dust", recipient, 1, errno.ErrInvalidValue, "", -1},
		{"confirmation pending", recipient, 200_000, errno.ErrInsufficientFunds, DetailsConfirmationPending, -1},
		{"would empty wallet", recipient, 400_000, errno.ErrInsufficientFunds, DetailsWouldEmptyWallet, 290_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateTx(tt.to, big.NewInt(tt.value))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))

			var we *errno.WalletError
			require.True(t, errors.As(err, &we))
			assert.Equal(t, tt.details, we.Details)
			if tt.sendable >= 0 {
				require.NotNil(t, we.SendableBalance)
				assert.Equal(t, tt.sendable, we.SendableBalance.Int64())
			}
		})
	}
}

func TestSendTxUpdatesBalanceAndNonce(t *testing.T) {
	l, api := loadedLedger(t)
	ctx := context.Background()

	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	stx, err := p.Sign()
	require.NoError(t, err)

	rec, err := l.SendTx(ctx, stx)
	require.NoError(t, err)
	assert.Equal(t, stx.Hash(), rec.ID)
	assert.Equal(t, int64(-1000), rec.Amount.Int64())
	assert.Equal(t, int64(-1), rec.Fee.Int64())
	assert.True(t, rec.IsRBF)

	st := l.Snapshot()
	assert.Equal(t, int64(1_000_000_000-1000-210_000), st.Balance.Int64())
	assert.Equal(t, uint64(1), st.TxCount)
	assert.Len(t, api.submitted, 1)

	next, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Unsigned.Nonce)
}

func TestSendTxSubmitFailureLeavesState(t *testing.T) {
	l, api := loadedLedger(t)
	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	stx, err := p.Sign()
	require.NoError(t, err)

	api.submitErr = errno.ErrGasLimitTooLow
	_, err = l.SendTx(context.Background(), stx)
	assert.True(t, errors.Is(err, errno.ErrGasLimitTooLow))

	st := l.Snapshot()
	assert.Equal(t, int64(1_000_000_000), st.Balance.Int64())
	assert.Equal(t, uint64(0), st.TxCount)
}

func TestSendTxReconcileFailureIsReported(t *testing.T) {
	l, api := loadedLedger(t)
	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	stx, err := p.Sign()
	require.NoError(t, err)

	api.getTxErr = errno.Transport(errors.New("timeout"))
	_, err = l.SendTx(context.Background(), stx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submitted")
	assert.True(t, errors.Is(err, errno.ErrTransport))
	assert.Equal(t, int64(1_000_000_000), l.Snapshot().Balance.Int64())
}

func TestSignRequiresUnlockedWallet(t *testing.T) {
	l, _ := loadedLedger(t)
	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)

	l.Lock()
	assert.True(t, l.IsLocked())
	_, err = p.Sign()
	assert.True(t, errors.Is(err, errno.ErrWalletLocked))
	assert.Equal(t, int64(1_000_000_000), l.Snapshot().Balance.Int64())

	require.NoError(t, l.Unlock(testSeed))
	_, err = p.Sign()
	assert.NoError(t, err)
}

func TestUnlockRejectsForeignSeed(t *testing.T) {
	l := newTestLedger(t, newFakeAPI())
	l.Lock()

	err := l.Unlock(strings.Repeat("11", 64))
	assert.True(t, errors.Is(err, errno.ErrInvalidSeed))
	assert.True(t, l.IsLocked())
}

func TestReplacementFlow(t *testing.T) {
	l, _ := loadedLedger(t)
	ctx := context.Background()

	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	stx, err := p.Sign()
	require.NoError(t, err)
	orig, err := l.SendTx(ctx, stx)
	require.NoError(t, err)
	require.True(t, orig.IsRBF)

	fetched, err := l.Transaction(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, orig.Nonce, fetched.Nonce)

	rp, err := l.CreateReplacement(fetched)
	require.NoError(t, err)
	assert.Equal(t, orig.Nonce, rp.Unsigned.Nonce)
	assert.Equal(t, int64(42_000), rp.AmountDelta.Int64())
	assert.True(t, fee.Equal(fee.Legacy{GasPrice: big.NewInt(12)}, rp.Unsigned.Fee))
	require.NotNil(t, rp.Unsigned.Replaces)

	rstx, err := rp.Sign()
	require.NoError(t, err)
	_, err = l.SendTx(ctx, rstx)
	require.NoError(t, err)

	st := l.Snapshot()
	assert.Equal(t, int64(1_000_000_000-1000-252_000), st.Balance.Int64())
	assert.Equal(t, uint64(1), st.TxCount)
}

func TestReplacementRejectedWithoutFunds(t *testing.T) {
	api := newFakeAPI()
	api.setBalance(testAddress, 10_000, 10_000)
	l := newTestLedger(t, api)
	require.NoError(t, l.Load(context.Background()))

	orig := &types.NormalizedTx{
		ID:       "0xabc",
		Amount:   big.NewInt(-5),
		Value:    big.NewInt(5),
		GasPrice: big.NewInt(10),
		GasLimit: 21000,
		To:       recipient,
	}
	_, err := l.CreateReplacement(orig)
	assert.True(t, errors.Is(err, errno.ErrInsufficientFunds))
}

func TestSendTxVerifiesReplacedTx(t *testing.T) {
	tests := []struct {
		name     string
		stored   *types.RawTx
		replaces *types.NormalizedTx
		wantErr  error
	}{
		{
			name:     "nonce mismatch",
			replaces: &types.NormalizedTx{ID: "0x01", Nonce: 42, Amount: big.NewInt(-5_000_000_000), MaxFee: big.NewInt(0)},
			wantErr:  errno.ErrInvalidTxID,
		},
		{
			name:     "unknown tx",
			replaces: &types.NormalizedTx{ID: "0x02", Nonce: 0, Amount: big.NewInt(-5_000_000_000)},
			wantErr:  errno.ErrTxNotFound,
		},
		{
			name: "record has another nonce",
			stored: &types.RawTx{ID: "0x03", From: testAddress, To: recipient, Value: decimal.NewFromInt(5),
				Gas: decimal.NewNullDecimal(decimal.NewFromInt(21000)), GasPrice: decimal.NewNullDecimal(decimal.NewFromInt(10)), Nonce: 7},
			replaces: &types.NormalizedTx{ID: "0x03", Nonce: 0, Amount: big.NewInt(-5_000_000_000)},
			wantErr:  errno.ErrInvalidTxID,
		},
		{
			name: "sent by another address",
			stored: &types.RawTx{ID: "0x04", From: recipient, To: testAddress, Value: decimal.NewFromInt(5),
				Gas: decimal.NewNullDecimal(decimal.NewFromInt(21000)), GasPrice: decimal.NewNullDecimal(decimal.NewFromInt(10))},
			replaces: &types.NormalizedTx{ID: "0x04", Nonce: 0, Amount: big.NewInt(-5_000_000_000)},
			wantErr:  errno.ErrInvalidTxID,
		},
		{
			name: "already confirmed",
			stored: &types.RawTx{ID: "0x05", From: testAddress, To: recipient, Value: decimal.NewFromInt(5),
				Gas: decimal.NewNullDecimal(decimal.NewFromInt(21000)), GasPrice: decimal.NewNullDecimal(decimal.NewFromInt(10)), Confirmations: 9},
			replaces: &types.NormalizedTx{ID: "0x05", Nonce: 0, Amount: big.NewInt(-5_000_000_000)},
			wantErr:  errno.ErrInvalidTxID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, api := loadedLedger(t)
			if tt.stored != nil {
				api.txs[tt.stored.ID] = tt.stored
			}

			p, err := l.CreateTx(recipient, big.NewInt(1000))
			require.NoError(t, err)
			stx, err := p.Sign()
			require.NoError(t, err)
			stx.Replaces = tt.replaces

			_, err = l.SendTx(context.Background(), stx)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, api.submitted)
			st := l.Snapshot()
			assert.Equal(t, int64(1_000_000_000), st.Balance.Int64())
			assert.Equal(t, uint64(0), st.TxCount)

			// 去掉伪造的 Replaces 后按普通交易记账
			stx.Replaces = nil
			_, err = l.SendTx(context.Background(), stx)
			require.NoError(t, err)
			st = l.Snapshot()
			assert.Equal(t, int64(1_000_000_000-1000-210_000), st.Balance.Int64())
			assert.Equal(t, uint64(1), st.TxCount)
		})
	}
}

func TestReplacementUsesIndexedRecord(t *testing.T) {
	l, _ := loadedLedger(t)
	ctx := context.Background()

	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	stx, err := p.Sign()
	require.NoError(t, err)
	orig, err := l.SendTx(ctx, stx)
	require.NoError(t, err)

	rp, err := l.CreateReplacement(orig)
	require.NoError(t, err)
	rstx, err := rp.Sign()
	require.NoError(t, err)
	// 客户端篡改金额和手续费，对账仍以索引服务记录为准
	forged := *orig
	forged.Amount = big.NewInt(-5_000_000_000)
	forged.MaxFee = big.NewInt(0)
	rstx.Replaces = &forged

	_, err = l.SendTx(ctx, rstx)
	require.NoError(t, err)
	st := l.Snapshot()
	assert.Equal(t, int64(1_000_000_000-1000-252_000), st.Balance.Int64())
	assert.Equal(t, uint64(1), st.TxCount)
}

func TestLoadTxsAdvancesCursor(t *testing.T) {
	l, api := loadedLedger(t)
	ctx := context.Background()
	api.pages[""] = &indexer.TxPage{
		Txs:     []types.RawTx{{ID: "0x01", From: recipient, To: testAddress, Value: decimal.NewFromInt(5), Confirmations: 9}},
		HasMore: true,
		Cursor:  "12:0x01:0",
	}

	h, err := l.LoadTxs(ctx)
	require.NoError(t, err)
	require.Len(t, h.Txs, 1)
	assert.True(t, h.HasMore)
	assert.True(t, h.Txs[0].IsIncoming)
	assert.True(t, h.Txs[0].Confirmed)
	assert.Equal(t, int64(5), h.Txs[0].Amount.Int64())
	assert.Equal(t, "12:0x01:0", l.Snapshot().Cursor)

	h, err = l.LoadTxs(ctx)
	require.NoError(t, err)
	assert.Empty(t, h.Txs)
	assert.False(t, h.HasMore)
	assert.Equal(t, "", l.Snapshot().Cursor)

	// Load 重置游标，从第一页重新开始
	_, err = l.LoadTxs(ctx)
	require.NoError(t, err)
	require.Equal(t, "12:0x01:0", l.Snapshot().Cursor)
	require.NoError(t, l.Load(ctx))
	assert.Equal(t, "", l.Snapshot().Cursor)
}

func TestTokenTransfer(t *testing.T) {
	api := newFakeAPI()
	api.quote = fee.FeeMarket{MaxPriorityFeePerGas: big.NewInt(2), MaxFeePerGas: big.NewInt(40)}
	api.setTokenBalance(testAddress, 500, 500)
	api.setBalance(testAddress, 1_000_000_000, 1_000_000_000)
	l := newTestLedger(t, api, func(o *Options) {
		o.Asset = types.TokenAsset("USDT", tokenAddr)
		o.FeeKind = fee.KindFeeMarket
	})
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	st := l.Snapshot()
	assert.Equal(t, DefaultTokenGasLimit, st.GasLimit)
	assert.Equal(t, int64(500), l.MaxAmount().Int64())

	p, err := l.CreateTx(recipient, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, p.Unsigned.To)
	assert.Equal(t, 0, p.Unsigned.Value.Sign())
	assert.True(t, IsTransferCall(p.Unsigned.Data))

	stx, err := p.Sign()
	require.NoError(t, err)
	rec, err := l.SendTx(ctx, stx)
	require.NoError(t, err)
	assert.True(t, rec.Token)
	assert.Equal(t, recipient, rec.To)
	assert.Equal(t, int64(-100), rec.Amount.Int64())
	assert.Equal(t, int64(8_000_000), rec.MaxFee.Int64())

	st = l.Snapshot()
	assert.Equal(t, int64(400), st.Balance.Int64())
	assert.Equal(t, int64(1_000_000_000-8_000_000), st.NativeBalance.Int64())
	assert.Equal(t, uint64(1), st.TxCount)
}

func TestTokenTransferNeedsNativeFee(t *testing.T) {
	api := newFakeAPI()
	api.setTokenBalance(testAddress, 500, 500)
	api.setBalance(testAddress, 1000, 1000)
	l := newTestLedger(t, api, func(o *Options) {
		o.Asset = types.TokenAsset("USDT", tokenAddr)
	})
	require.NoError(t, l.Load(context.Background()))

	_, err := l.CreateTx(recipient, big.NewInt(100))
	require.True(t, errors.Is(err, errno.ErrInsufficientFeeFunds))
	var we *errno.WalletError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, int64(2_000_000), we.Required.Int64())
}

func TestImportFlow(t *testing.T) {
	l, api := loadedLedger(t)
	ctx := context.Background()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	external := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	api.setBalance(external, 1_000_000, 1_000_000)
	api.txCounts[external] = 3

	opts, err := l.GetImportTxOptions(ctx, "0x"+hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)
	assert.Equal(t, external, opts.Address)
	assert.Equal(t, uint64(3), opts.TxCount)
	assert.Equal(t, int64(1_000_000), opts.Amount.Int64())

	p, err := l.CreateImportTx("", opts)
	require.NoError(t, err)
	assert.Equal(t, external, p.Unsigned.From)
	assert.Equal(t, testAddress, p.Unsigned.To)
	assert.Equal(t, uint64(3), p.Unsigned.Nonce)

	// 外部私钥签名，与钱包锁定无关
	l.Lock()
	stx, err := p.Sign()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stx.Tx.Nonce())
	assert.Equal(t, int64(790_000), stx.Tx.Value().Int64())
	require.NoError(t, l.Unlock(testSeed))

	_, err = l.SendTx(ctx, stx)
	require.NoError(t, err)
	st := l.Snapshot()
	assert.Equal(t, int64(1_000_000_000+790_000), st.Balance.Int64())
	assert.Equal(t, uint64(0), st.TxCount)
}

func TestImportRefreshesFeeQuote(t *testing.T) {
	api := newFakeAPI()
	api.quote = fee.Legacy{GasPrice: big.NewInt(10)}
	l := newTestLedger(t, api)
	ctx := context.Background()
	require.Equal(t, 0, fee.Cap(l.Snapshot().Fee).Sign())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	external := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	api.setBalance(external, 1_000_000, 1_000_000)

	opts, err := l.GetImportTxOptions(ctx, "0x"+hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), l.Snapshot().MaxReplaceByFeeGas.Int64())

	p, err := l.CreateImportTx(recipient, opts)
	require.NoError(t, err)
	stx, err := p.Sign()
	require.NoError(t, err)
	assert.Equal(t, int64(10), stx.Tx.GasPrice().Int64())
	assert.Equal(t, int64(1_000_000-210_000), stx.Tx.Value().Int64())
	assert.Equal(t, recipient, strings.ToLower(stx.Tx.To().Hex()))
}

func TestImportRejectsBadKeys(t *testing.T) {
	l, _ := loadedLedger(t)
	_, err := l.GetImportTxOptions(context.Background(), "not-a-key")
	assert.True(t, errors.Is(err, errno.ErrInvalidPrivateKey))

	_, err = l.CreateImportTx("", nil)
	assert.True(t, errors.Is(err, errno.ErrInvalidPrivateKey))
}

func TestExportPrivateKeysAndTxURL(t *testing.T) {
	l := newTestLedger(t, newFakeAPI())

	csv, err := l.ExportPrivateKeys()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(csv, "address,privatekey\n"+testAddress+","))

	l.Lock()
	_, err = l.ExportPrivateKeys()
	assert.True(t, errors.Is(err, errno.ErrWalletLocked))

	assert.Equal(t, "https://etherscan.io/tx/0xabc", l.TxURL("0xabc"))
}

func TestBalanceHintFromCache(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	api := newFakeAPI()
	api.setBalance(testAddress, 777, 777)

	first := newTestLedger(t, api, func(o *Options) { o.Cache = c })
	require.NoError(t, first.Load(context.Background()))

	second := newTestLedger(t, newFakeAPI(), func(o *Options) { o.Cache = c })
	assert.Equal(t, int64(777), second.Snapshot().Balance.Int64())
}
