// Package wallet 钱包应用服务：在账本之上串起分布式锁、快照持久化、交易记录和事件发布。
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"eth-wallet-core/internal/event"
	"eth-wallet-core/internal/model"
	"eth-wallet-core/internal/service/ledger"
	"eth-wallet-core/internal/service/mq"
	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/keystore"
	"eth-wallet-core/pkg/monitor"
	"eth-wallet-core/pkg/utils/lock"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sendLockTTL = 30 * time.Second

// Deps 可选依赖；DB 为空时不落库，事件直接发往 Producer
type Deps struct {
	DB       *gorm.DB
	Producer mq.Producer
	Locker   lock.DistributedLock
	Metrics  *monitor.Metrics
	Logger   *zap.Logger
	// SnapshotPassword 快照加密口令，为空时不保存快照
	SnapshotPassword string
}

type Service struct {
	ledger   *ledger.Ledger
	db       *gorm.DB
	producer mq.Producer
	locker   lock.DistributedLock
	metrics  *monitor.Metrics
	password string
	log      *zap.Logger
}

func NewService(l *ledger.Ledger, deps Deps) *Service {
	s := &Service{
		ledger:   l,
		db:       deps.DB,
		producer: deps.Producer,
		locker:   deps.Locker,
		metrics:  deps.Metrics,
		password: deps.SnapshotPassword,
		log:      deps.Logger,
	}
	if s.producer == nil {
		s.producer = mq.NopProducer{}
	}
	if s.locker == nil {
		s.locker = lock.NewLocalLock()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.With(zap.String("address", l.Address()))
	return s
}

func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

// Overview 钱包当前状态
type Overview struct {
	Address          string      `json:"address"`
	Asset            types.Asset `json:"asset"`
	Balance          string      `json:"balance"`
	ConfirmedBalance string      `json:"confirmed_balance"`
	NativeBalance    string      `json:"native_balance,omitempty"`
	MaxAmount        string      `json:"max_amount"`
	DefaultFee       string      `json:"default_fee"`
	Fee              fee.Fields  `json:"fee"`
	TxCount          uint64      `json:"tx_count"`
	MinConfirmations int64       `json:"min_confirmations"`
	Locked           bool        `json:"locked"`
	PublicKey        string      `json:"public_key"`
}

func (s *Service) Overview() *Overview {
	st := s.ledger.Snapshot()
	o := &Overview{
		Address:          st.Address,
		Asset:            st.Asset,
		Balance:          st.Balance.String(),
		ConfirmedBalance: st.ConfirmedBalance.String(),
		MaxAmount:        s.ledger.MaxAmount().String(),
		DefaultFee:       st.DefaultFee().String(),
		Fee:              fee.ToFields(st.Fee),
		TxCount:          st.TxCount,
		MinConfirmations: st.MinConfirmations,
		Locked:           st.Locked,
		PublicKey:        s.ledger.PublicKey(),
	}
	if st.Asset.IsToken() {
		o.NativeBalance = st.NativeBalance.String()
	}
	return o
}

// Refresh 重新加载余额/nonce/报价并保存快照
func (s *Service) Refresh(ctx context.Context) (*Overview, error) {
	if err := s.ledger.Load(ctx); err != nil {
		return nil, err
	}
	s.saveSnapshot(ctx)
	return s.Overview(), nil
}

// RefreshFee 只刷新报价，供定时任务使用
func (s *Service) RefreshFee(ctx context.Context) error {
	return s.ledger.Update(ctx)
}

func (s *Service) History(ctx context.Context) (*ledger.History, error) {
	return s.ledger.LoadTxs(ctx)
}

func (s *Service) Transaction(ctx context.Context, txID string) (*types.NormalizedTx, error) {
	return s.ledger.Transaction(ctx, txID)
}

// BuildTransfer 仅构建待签名交易，供离线签名使用
func (s *Service) BuildTransfer(to string, amount *big.Int) (*types.UnsignedTransaction, error) {
	to, err := resolveRecipient(to)
	if err != nil {
		return nil, err
	}
	p, err := s.ledger.CreateTx(to, amount)
	if err != nil {
		return nil, err
	}
	return p.Unsigned, nil
}

// SendResult 广播结果
type SendResult struct {
	Tx  *types.NormalizedTx `json:"tx"`
	URL string              `json:"url,omitempty"`
}

// Transfer 构建、签名并广播；同一地址同时只允许一笔发送
func (s *Service) Transfer(ctx context.Context, to string, amount *big.Int) (*SendResult, error) {
	to, err := resolveRecipient(to)
	if err != nil {
		return nil, err
	}
	return s.withSendLock(ctx, func() (*ledger.SignedTx, error) {
		p, err := s.ledger.CreateTx(to, amount)
		if err != nil {
			return nil, err
		}
		return p.Sign()
	})
}

// Replace 以更高手续费替换一笔未确认交易
func (s *Service) Replace(ctx context.Context, txID string) (*SendResult, error) {
	return s.withSendLock(ctx, func() (*ledger.SignedTx, error) {
		orig, err := s.ledger.Transaction(ctx, txID)
		if err != nil {
			return nil, err
		}
		if !orig.IsRBF {
			return nil, &errno.WalletError{Errno: errno.ErrInvalidTxID, Details: "transaction is not replaceable"}
		}
		p, err := s.ledger.CreateReplacement(orig)
		if err != nil {
			return nil, err
		}
		return p.Sign()
	})
}

// Import 用外部私钥把该地址的余额清扫到本钱包 (to 为空时) 或 to
func (s *Service) Import(ctx context.Context, privateKey, to string) (*SendResult, error) {
	if to != "" {
		var err error
		if to, err = resolveRecipient(to); err != nil {
			return nil, err
		}
	}
	return s.withSendLock(ctx, func() (*ledger.SignedTx, error) {
		opts, err := s.ledger.GetImportTxOptions(ctx, privateKey)
		if err != nil {
			return nil, err
		}
		p, err := s.ledger.CreateImportTx(to, opts)
		if err != nil {
			return nil, err
		}
		return p.Sign()
	})
}

// Broadcast 广播外部签名的交易
func (s *Service) Broadcast(ctx context.Context, env *types.SignedTransaction) (*SendResult, error) {
	stx, err := ledger.DecodeSigned(env)
	if err != nil {
		return nil, &errno.WalletError{Errno: errno.ErrBind, Err: err}
	}
	return s.withSendLock(ctx, func() (*ledger.SignedTx, error) {
		return stx, nil
	})
}

// ResolveIban 直接型 IBAN 转地址
func (s *Service) ResolveIban(iban string) (string, error) {
	if !address.IsValidIban(iban) || !address.IsDirectIban(iban) {
		return "", &errno.WalletError{Errno: errno.ErrInvalidIban, Details: iban}
	}
	return address.IbanToAddress(iban), nil
}

// resolveRecipient 收款方可以是地址或直接型 IBAN
func resolveRecipient(to string) (string, error) {
	if address.IsValidIban(to) {
		if !address.IsDirectIban(to) {
			return "", &errno.WalletError{Errno: errno.ErrInvalidIban, Details: "indirect IBAN is not supported"}
		}
		return address.IbanToAddress(to), nil
	}
	return to, nil
}

func (s *Service) withSendLock(ctx context.Context, build func() (*ledger.SignedTx, error)) (*SendResult, error) {
	key := "wallet:send:" + s.ledger.Address()
	ok, err := s.locker.Acquire(ctx, key, sendLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire send lock: %w", err)
	}
	if !ok {
		return nil, errno.ErrSendInProgress
	}
	defer func() {
		if err := s.locker.Release(context.Background(), key); err != nil {
			s.log.Warn("release send lock failed", zap.Error(err))
		}
	}()

	stx, err := build()
	if err != nil {
		return nil, err
	}
	rec, err := s.ledger.SendTx(ctx, stx)
	if err != nil {
		return nil, err
	}

	s.record(ctx, rec, stx)
	s.saveSnapshot(ctx)
	return &SendResult{Tx: rec, URL: s.ledger.TxURL(rec.ID)}, nil
}

// record 写交易记录和 outbox；没有数据库时直接发布事件。失败只记日志，交易已经广播
func (s *Service) record(ctx context.Context, rec *types.NormalizedTx, stx *ledger.SignedTx) {
	ev := event.NewTxSentEvent()
	ev.TxID = rec.ID
	ev.Asset = s.ledger.Asset().Key()
	ev.From = rec.From
	ev.To = rec.To
	ev.Amount = rec.Amount.String()
	ev.MaxFee = rec.MaxFee.String()
	ev.Nonce = rec.Nonce
	ev.ExplorerURL = s.ledger.TxURL(rec.ID)
	if stx.Replaces != nil {
		ev.ReplacesTxID = stx.Replaces.ID
	}
	key := s.ledger.Address()

	if s.db == nil {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.log.Error("encode event failed", zap.Error(err))
			return
		}
		err = s.producer.Publish(ctx, event.TopicTxSent, key, payload)
		s.metrics.RecordEventPublished(event.TopicTxSent, err)
		if err != nil {
			s.log.Error("publish event failed", zap.String("tx_id", rec.ID), zap.Error(err))
		}
		return
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.SentTransaction{
			TxID:         rec.ID,
			Asset:        ev.Asset,
			FromAddress:  rec.From,
			ToAddress:    rec.To,
			Amount:       decimal.NewFromBigInt(rec.Amount, 0),
			MaxFee:       decimal.NewFromBigInt(rec.MaxFee, 0),
			Nonce:        rec.Nonce,
			ReplacesTxID: ev.ReplacesTxID,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		return model.CreateOutboxMessage(tx, event.TopicTxSent, key, ev)
	})
	if err != nil {
		s.log.Error("record sent transaction failed", zap.String("tx_id", rec.ID), zap.Error(err))
	}
}

func (s *Service) saveSnapshot(ctx context.Context) {
	if s.db == nil || s.password == "" {
		return
	}
	if err := SaveSnapshot(ctx, s.db, s.ledger, s.password); err != nil {
		s.log.Warn("save snapshot failed", zap.Error(err))
	}
}

// SaveSnapshot 加密保存账本状态，同一钱包只保留一行
func SaveSnapshot(ctx context.Context, db *gorm.DB, l *ledger.Ledger, password string) error {
	state, err := l.Serialize()
	if err != nil {
		return err
	}
	enc, err := keystore.Encrypt("snapshot", state, password, keystore.LightScrypt)
	if err != nil {
		return err
	}
	blob, err := enc.Marshal()
	if err != nil {
		return err
	}

	row := model.WalletSnapshot{Address: l.Address(), Asset: l.Asset().Key(), State: blob}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}, {Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
}

// ErrNoSnapshot 数据库中没有该钱包的快照
var ErrNoSnapshot = errors.New("wallet snapshot not found")

// RestoreSnapshot 读取并解密快照，deps 提供运行时依赖
func RestoreSnapshot(ctx context.Context, db *gorm.DB, address string, asset types.Asset, password string, deps ledger.Options) (*ledger.Ledger, error) {
	var row model.WalletSnapshot
	err := db.WithContext(ctx).
		Where("address = ? AND asset = ?", address, asset.Key()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, &errno.WalletError{Errno: errno.ErrDatabase, Err: err}
	}

	enc, err := keystore.Unmarshal(row.State)
	if err != nil {
		return nil, err
	}
	state, err := keystore.Decrypt(enc, password)
	if err != nil {
		return nil, err
	}
	return ledger.Deserialize(state, deps)
}
