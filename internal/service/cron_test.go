package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"eth-wallet-core/pkg/utils/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) RefreshFee(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestRefreshFeeRunsUnderLock(t *testing.T) {
	r := &countingRefresher{}
	locker := lock.NewLocalLock()
	s := NewCronService(r, locker, time.Second, "ETH")

	s.RefreshFee()
	assert.Equal(t, int32(1), r.calls.Load())

	// 锁被其它实例持有时跳过
	ok, err := locker.Acquire(context.Background(), "cron:lock:fee:ETH", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	s.RefreshFee()
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestRefreshFeeReleasesLockOnError(t *testing.T) {
	r := &countingRefresher{err: errors.New("indexer down")}
	s := NewCronService(r, lock.NewLocalLock(), time.Second, "ETH")

	s.RefreshFee()
	s.RefreshFee()
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestCronServiceStartStop(t *testing.T) {
	s := NewCronService(&countingRefresher{}, lock.NewLocalLock(), time.Minute, "ETH")
	require.NoError(t, s.Start())
	s.Stop()
}
