package service

import (
	"context"
	"time"

	"Volunteer_Hub/internal/metrics"
	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const relayLockName = "notify:relay"

// Publisher 消息投递，生产环境为 Kafka
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// NotificationEvent 转发到 Kafka 的消息体
type NotificationEvent struct {
	ID          uint64                 `json:"id"`
	UserID      uint64                 `json:"user_id"`
	Type        model.NotificationType `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Link        string                 `json:"link,omitempty"`
	RelatedType string                 `json:"related_type,omitempty"`
	RelatedID   uint64                 `json:"related_id,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

type RelayConfig struct {
	BatchSize int
	MaxRetry  int
	Interval  time.Duration
	LockTTL   time.Duration
}

// NotificationRelayer 把已落库的通知转发到 Kafka，多实例靠分布式锁串行
type NotificationRelayer struct {
	store NotificationStore
	pub   Publisher
	lock  Locker
	log   *zap.Logger
	cfg   RelayConfig
}

func NewNotificationRelayer(store NotificationStore, pub Publisher, lock Locker, log *zap.Logger, cfg RelayConfig) *NotificationRelayer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &NotificationRelayer{store: store, pub: pub, lock: lock, log: log, cfg: cfg}
}

// Run 定时转发，直到 ctx 取消
func (r *NotificationRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 返回本轮成功与失败条数
func (r *NotificationRelayer) drainOnce(ctx context.Context) (sent, failed int) {
	if r.lock != nil {
		token := uuid.NewString()
		ok, err := r.lock.Acquire(ctx, relayLockName, token, r.cfg.LockTTL)
		if err != nil {
			r.log.Warn("relay lock failed", zap.Error(err))
			return 0, 0
		}
		if !ok {
			return 0, 0
		}
		defer func() {
			if err := r.lock.Release(context.Background(), relayLockName, token); err != nil {
				r.log.Warn("relay unlock failed", zap.Error(err))
			}
		}()
	}

	rows, err := r.store.ListUnpushed(ctx, r.cfg.BatchSize, r.cfg.MaxRetry)
	if err != nil {
		r.log.Error("relay query failed", zap.Error(err))
		return 0, 0
	}
	for i := range rows {
		n := rows[i]
		ev := NotificationEvent{
			ID:          n.ID,
			UserID:      n.UserID,
			Type:        n.Type,
			Title:       n.Title,
			Message:     n.Message,
			Link:        n.Link,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt,
		}
		if err := r.pub.Publish(ctx, pkg.MakeKeyFromID(n.UserID), ev); err != nil {
			failed++
			metrics.RecordRelay(false)
			r.log.Warn("relay publish failed",
				zap.Uint64("notification_id", n.ID), zap.Int("retry", n.PushRetry+1), zap.Error(err))
			if err := r.store.MarkPushFailed(ctx, n.ID); err != nil {
				r.log.Error("mark push failed", zap.Uint64("notification_id", n.ID), zap.Error(err))
			}
			continue
		}
		sent++
		metrics.RecordRelay(true)
		if err := r.store.MarkPushed(ctx, n.ID); err != nil {
			r.log.Error("mark pushed failed", zap.Uint64("notification_id", n.ID), zap.Error(err))
		}
	}
	return sent, failed
}
