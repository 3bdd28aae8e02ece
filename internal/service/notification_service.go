package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Volunteer_Hub/internal/metrics"
	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/mysql"

	"go.uber.org/zap"
)

type NotifyRequest struct {
	UserID      uint64
	Type        model.NotificationType
	Title       string
	Message     string
	Link        string
	RelatedType string
	RelatedID   uint64
}

// Notifier 触发方只管投递，不关心结果
type Notifier interface {
	Notify(ctx context.Context, req NotifyRequest)
}

// Sink 落库一条通知；任何失败都只记日志并返回 nil
type Sink struct {
	store NotificationStore
	cache UnreadCache
	log   *zap.Logger
}

func NewSink(store NotificationStore, cache UnreadCache, log *zap.Logger) *Sink {
	return &Sink{store: store, cache: cache, log: log}
}

func (s *Sink) Record(ctx context.Context, req NotifyRequest) *model.Notification {
	if req.UserID == 0 || !req.Type.Valid() {
		s.log.Warn("notification dropped: invalid request",
			zap.Uint64("user_id", req.UserID), zap.String("type", string(req.Type)))
		metrics.RecordNotification("failed")
		return nil
	}
	n := &model.Notification{
		UserID:      req.UserID,
		Type:        req.Type,
		Title:       pkg.Sanitize(req.Title, 200),
		Message:     pkg.Sanitize(req.Message, 1000),
		Link:        req.Link,
		RelatedType: req.RelatedType,
		RelatedID:   req.RelatedID,
		PushStatus:  model.PushPending,
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.log.Error("create notification failed",
			zap.Uint64("user_id", req.UserID), zap.String("type", string(req.Type)), zap.Error(err))
		metrics.RecordNotification("failed")
		return nil
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, req.UserID); err != nil {
			s.log.Warn("invalidate unread cache failed", zap.Uint64("user_id", req.UserID), zap.Error(err))
		}
	}
	metrics.RecordNotification("sent")
	return n
}

// Notify 同步版本，未启用异步分发时直接使用
func (s *Sink) Notify(ctx context.Context, req NotifyRequest) {
	s.Record(ctx, req)
}

func applicationReceived(orgUserID uint64, app *model.Application, volunteerName string) NotifyRequest {
	if volunteerName == "" {
		volunteerName = "A volunteer"
	}
	return NotifyRequest{
		UserID:      orgUserID,
		Type:        model.NotifyApplicationReceived,
		Title:       "New Volunteer Application",
		Message:     fmt.Sprintf("%s has applied to your opportunity", volunteerName),
		Link:        fmt.Sprintf("/opportunities/%d/applications/%d", app.OpportunityID, app.ID),
		RelatedType: model.EntityApplication,
		RelatedID:   app.ID,
	}
}

var statusMessages = map[model.ApplicationStatus]string{
	model.StatusApproved:  "Your application has been approved!",
	model.StatusRejected:  "Your application has been reviewed",
	model.StatusWithdrawn: "Your application has been withdrawn",
}

func applicationStatusChanged(app *model.Application, opportunityTitle string) NotifyRequest {
	status := string(app.Status)
	return NotifyRequest{
		UserID:      app.VolunteerID,
		Type:        model.NotificationType("application_" + status),
		Title:       "Application " + strings.ToUpper(status[:1]) + status[1:],
		Message:     fmt.Sprintf("%s for %q", statusMessages[app.Status], opportunityTitle),
		Link:        fmt.Sprintf("/applications/%d", app.ID),
		RelatedType: model.EntityApplication,
		RelatedID:   app.ID,
	}
}

func newReview(revieweeID uint64, reviewerName string, rating int) NotifyRequest {
	if reviewerName == "" {
		reviewerName = "Someone"
	}
	return NotifyRequest{
		UserID:      revieweeID,
		Type:        model.NotifyNewReview,
		Title:       "New Review Received",
		Message:     fmt.Sprintf("%s left you a %d-star review", reviewerName, rating),
		RelatedType: model.EntityUser,
		RelatedID:   revieweeID,
	}
}

// NotificationService 用户侧的读、标记已读、删除
type NotificationService struct {
	store NotificationStore
	cache UnreadCache
	log   *zap.Logger
	now   func() time.Time
}

func NewNotificationService(store NotificationStore, cache UnreadCache, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, cache: cache, log: log, now: time.Now}
}

type NotificationQuery struct {
	UnreadOnly bool
	Type       string
	Page       int
	Limit      int
}

type NotificationPage struct {
	Page[model.Notification]
	UnreadCount int64 `json:"unread_count"`
}

func (s *NotificationService) List(ctx context.Context, caller Caller, q NotificationQuery) (*NotificationPage, error) {
	f := mysql.NotificationFilter{UnreadOnly: q.UnreadOnly}
	if q.Type != "" {
		t := model.NotificationType(q.Type)
		if !t.Valid() {
			return nil, pkg.Validation("invalid notification type")
		}
		f.Type = t
	}
	page, limit := pkg.Paging(q.Page, q.Limit)
	list, total, err := s.store.List(ctx, caller.ID, f, pkg.Offset(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.UnreadCount(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{Page: newPage(list, total, page, limit), UnreadCount: unread}, nil
}

// UnreadCount 先读缓存，未命中回源并回填
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	if s.cache != nil {
		n, hit, err := s.cache.Get(ctx, userID)
		if err == nil && hit {
			return n, nil
		}
		if err != nil {
			s.log.Warn("read unread cache failed", zap.Uint64("user_id", userID), zap.Error(err))
		}
	}
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, userID, n)
	}
	return n, nil
}

func (s *NotificationService) owned(ctx context.Context, caller Caller, id uint64) (*model.Notification, error) {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	if n.UserID != caller.ID {
		return nil, ErrNotNotificationOwner
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, caller Caller, id uint64) (*model.Notification, error) {
	n, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	at := s.now()
	if err := s.store.MarkRead(ctx, id, at); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	n.IsRead = true
	n.ReadAt = &at
	s.invalidate(ctx, caller.ID)
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller Caller) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, caller.ID, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	s.invalidate(ctx, caller.ID)
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	s.invalidate(ctx, caller.ID)
	return nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("invalidate unread cache failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}
