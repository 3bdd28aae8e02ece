package service

import (
	"context"
	"sync"
	"time"

	"Volunteer_Hub/internal/metrics"
	"Volunteer_Hub/internal/pkg"

	"go.uber.org/zap"
)

// EmailLookup 按用户 id 取收件地址
type EmailLookup func(ctx context.Context, userID uint64) (string, error)

// Dispatcher 有界队列 + 固定 worker 的异步通知；队列满直接丢弃
type Dispatcher struct {
	sink    *Sink
	mailer  pkg.Mailer
	emailOf EmailLookup
	log     *zap.Logger
	timeout time.Duration

	queue  chan NotifyRequest
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type DispatcherOption func(*Dispatcher)

// WithMailer 开启邮件通道
func WithMailer(m pkg.Mailer, lookup EmailLookup) DispatcherOption {
	return func(d *Dispatcher) {
		d.mailer = m
		d.emailOf = lookup
	}
}

func NewDispatcher(sink *Sink, queueSize, workers int, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 1
	}
	d := &Dispatcher{
		sink:    sink,
		log:     log,
		timeout: 5 * time.Second,
		queue:   make(chan NotifyRequest, queueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Notify 非阻塞入队，请求上下文取消不影响投递
func (d *Dispatcher) Notify(_ context.Context, req NotifyRequest) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notification dropped: dispatcher closed", zap.Uint64("user_id", req.UserID))
		metrics.RecordNotification("dropped")
		return
	}
	select {
	case d.queue <- req:
	default:
		d.log.Warn("notification dropped: queue full",
			zap.Uint64("user_id", req.UserID), zap.String("type", string(req.Type)))
		metrics.RecordNotification("dropped")
	}
}

// Close 停止接收并等待队列排空
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for req := range d.queue {
		d.handle(req)
	}
}

func (d *Dispatcher) handle(req NotifyRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	n := d.sink.Record(ctx, req)
	if n == nil || d.mailer == nil || d.emailOf == nil {
		return
	}
	to, err := d.emailOf(ctx, req.UserID)
	if err != nil || to == "" {
		d.log.Warn("skip notification email: no address", zap.Uint64("user_id", req.UserID), zap.Error(err))
		return
	}
	if err := d.mailer.Send(to, n.Title, pkg.NotificationHTML(n.Title, n.Message, n.Link)); err != nil {
		d.log.Warn("send notification email failed", zap.Uint64("notification_id", n.ID), zap.Error(err))
		metrics.RecordNotification("mail_failed")
		return
	}
	metrics.RecordNotification("mailed")
}
