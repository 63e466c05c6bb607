package service

import (
	"context"
	"time"

	"eth-wallet-core/pkg/logger"
	"eth-wallet-core/pkg/utils/lock"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// FeeRefresher 刷新手续费报价的最小接口
type FeeRefresher interface {
	RefreshFee(ctx context.Context) error
}

type CronService struct {
	cron     *cron.Cron
	locker   lock.DistributedLock
	wallet   FeeRefresher
	interval time.Duration
	lockKey  string
}

// NewCronService lockKey 区分钱包，多实例部署时同一时刻只有一个实例刷新
func NewCronService(wallet FeeRefresher, locker lock.DistributedLock, interval time.Duration, lockKey string) *CronService {
	return &CronService{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		locker:   locker,
		wallet:   wallet,
		interval: interval,
		lockKey:  "cron:lock:fee:" + lockKey,
	}
}

func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.RefreshFee); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("Cron Service started", zap.Duration("fee_interval", s.interval))
	return nil
}

func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Cron Service stopped")
}

// RefreshFee 获取锁后刷新报价；锁 TTL 略小于调度间隔
func (s *CronService) RefreshFee() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	ttl := s.interval - s.interval/10
	locked, err := s.locker.Acquire(ctx, s.lockKey, ttl)
	if err != nil || !locked {
		logger.Debug("RefreshFee: 获取锁失败或已有实例在运行", zap.Error(err))
		return
	}
	defer s.locker.Release(context.Background(), s.lockKey)

	if err := s.wallet.RefreshFee(ctx); err != nil {
		logger.Warn("RefreshFee failed", zap.Error(err))
		return
	}
	logger.Debug("fee quote refreshed")
}
