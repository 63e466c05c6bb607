package service

import (
	"context"
	"time"

	"eth-wallet-core/internal/model"
	"eth-wallet-core/internal/service/mq"
	"eth-wallet-core/pkg/monitor"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RelayService 把 outbox 中待投递的消息搬运到 MQ，至少投递一次
type RelayService struct {
	db       *gorm.DB
	producer mq.Producer
	metrics  *monitor.Metrics
	log      *zap.Logger
	interval time.Duration
	batch    int
}

func NewRelayService(db *gorm.DB, producer mq.Producer, metrics *monitor.Metrics, log *zap.Logger) *RelayService {
	return &RelayService{
		db:       db,
		producer: producer,
		metrics:  metrics,
		log:      log,
		interval: 500 * time.Millisecond,
		batch:    50,
	}
}

func (s *RelayService) Start(ctx context.Context) {
	s.log.Info("relay started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("relay stopped")
			return
		case <-ticker.C:
			s.processPending(ctx)
		}
	}
}

func (s *RelayService) processPending(ctx context.Context) {
	var messages []model.OutboxMessage
	err := s.db.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id").
		Limit(s.batch).
		Find(&messages).Error
	if err != nil {
		s.log.Warn("query outbox failed", zap.Error(err))
		return
	}

	for _, msg := range messages {
		err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload)
		s.metrics.RecordEventPublished(msg.Topic, err)
		if err != nil {
			s.log.Warn("publish outbox message failed", zap.Uint64("id", msg.ID), zap.Error(err))
			s.db.WithContext(ctx).Model(&msg).UpdateColumn("attempts", gorm.Expr("attempts + 1"))
			// 保持顺序：同一批后续消息留到下一轮
			return
		}
		// 发送成功后才标记；标记失败会重发，消费方需幂等
		if err := s.db.WithContext(ctx).Model(&msg).Update("status", model.OutboxSent).Error; err != nil {
			s.log.Warn("mark outbox message failed", zap.Uint64("id", msg.ID), zap.Error(err))
		}
	}
}
