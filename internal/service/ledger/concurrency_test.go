package ledger

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendOne(t *testing.T, l *Ledger, value int64) *types.NormalizedTx {
	t.Helper()
	p, err := l.CreateTx(recipient, big.NewInt(value))
	require.NoError(t, err)
	stx, err := p.Sign()
	require.NoError(t, err)
	rec, err := l.SendTx(context.Background(), stx)
	require.NoError(t, err)
	return rec
}

func TestLoadDoesNotRollBackConcurrentSend(t *testing.T) {
	l, api := loadedLedger(t)
	ctx := context.Background()

	// Load 读到 nonce=0 后停住
	entered, release := api.pause("GetTxCount")
	done := make(chan error, 1)
	go func() { done <- l.Load(ctx) }()
	<-entered

	rec := sendOne(t, l, 1000)
	assert.Equal(t, uint64(0), rec.Nonce)
	require.Equal(t, uint64(1), l.Snapshot().TxCount)

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, uint64(1), l.Snapshot().TxCount)
	next, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Unsigned.Nonce)
}

func TestConcurrentSendTx(t *testing.T) {
	l, api := loadedLedger(t)
	ctx := context.Background()

	p, err := l.CreateTx(recipient, big.NewInt(1000))
	require.NoError(t, err)

	const n = 8
	signed := make([]*SignedTx, n)
	for i := range signed {
		u := *p.Unsigned
		u.Nonce = uint64(i)
		signed[i], err = l.Sign(&u)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, stx := range signed {
		wg.Add(1)
		go func(stx *SignedTx) {
			defer wg.Done()
			_, err := l.SendTx(ctx, stx)
			errs <- err
		}(stx)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	st := l.Snapshot()
	assert.Equal(t, uint64(n), st.TxCount)
	assert.Equal(t, int64(1_000_000_000-n*(1000+210_000)), st.Balance.Int64())
	assert.Len(t, api.submitted, n)
}

func TestLoadInterleavedWithSendsKeepsNonceMonotonic(t *testing.T) {
	l, _ := loadedLedger(t)
	ctx := context.Background()

	const sends = 20
	stop := make(chan struct{})
	loadErrs := make(chan error, 1)
	go func() {
		defer close(loadErrs)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := l.Load(ctx); err != nil {
				loadErrs <- err
				return
			}
		}
	}()

	for i := 0; i < sends; i++ {
		p, err := l.CreateTx(recipient, big.NewInt(1000))
		require.NoError(t, err)
		require.Equal(t, uint64(i), p.Unsigned.Nonce)
		stx, err := p.Sign()
		require.NoError(t, err)
		_, err = l.SendTx(ctx, stx)
		require.NoError(t, err)
	}
	close(stop)
	require.NoError(t, <-loadErrs)

	assert.Equal(t, uint64(sends), l.Snapshot().TxCount)
}

func TestLoadTxsFinishingAfterLoadKeepsCursorReset(t *testing.T) {
	l, api := loadedLedger(t)
	ctx := context.Background()
	api.pages[""] = &indexer.TxPage{
		Txs:     []types.RawTx{{ID: "0x01", From: recipient, To: testAddress, Value: decimal.NewFromInt(5)}},
		HasMore: true,
		Cursor:  "12:0x01:0",
	}

	type result struct {
		h   *History
		err error
	}
	entered, release := api.pause("GetTxPage")
	done := make(chan result, 1)
	go func() {
		h, err := l.LoadTxs(ctx)
		done <- result{h, err}
	}()
	<-entered

	require.NoError(t, l.Load(ctx))
	close(release)
	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.h.Txs, 1)
	assert.Equal(t, "", l.Snapshot().Cursor)

	// 下一页仍从头开始
	h, err := l.LoadTxs(ctx)
	require.NoError(t, err)
	require.Len(t, h.Txs, 1)
	assert.Equal(t, "12:0x01:0", l.Snapshot().Cursor)
}
