package service

import (
	"context"
	"fmt"
	"math"

	"Volunteer_Hub/internal/metrics"
	"Volunteer_Hub/internal/model"

	"go.uber.org/zap"
)

const defaultRatingAttempts = 5

// NextAverage 增量均值，保留一位小数
func NextAverage(average float64, count int64, rating int) float64 {
	v := (average*float64(count) + float64(rating)) / float64(count+1)
	return math.Round(v*10) / 10
}

// RatingAggregator 读-算-CAS 写，rating_count 充当版本号
type RatingAggregator struct {
	users    UserStore
	attempts int
}

func NewRatingAggregator(users UserStore) *RatingAggregator {
	return &RatingAggregator{users: users, attempts: defaultRatingAttempts}
}

func (a *RatingAggregator) Record(ctx context.Context, userID uint64, rating int) (model.Rating, error) {
	if rating < 1 || rating > 5 {
		return model.Rating{}, ErrInvalidRating
	}
	for i := 0; i < a.attempts; i++ {
		u, err := a.users.FindByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return model.Rating{}, ErrUserNotFound
			}
			return model.Rating{}, fmt.Errorf("load rating: %w", err)
		}
		avg := NextAverage(u.Rating.Average, u.Rating.Count, rating)
		ok, err := a.users.UpdateRating(ctx, userID, u.Rating.Count, avg)
		if err != nil {
			return model.Rating{}, fmt.Errorf("update rating: %w", err)
		}
		if ok {
			return model.Rating{Average: avg, Count: u.Rating.Count + 1}, nil
		}
		metrics.RecordRatingRetry()
	}
	return model.Rating{}, ErrRatingContention
}

// RatingReconciler 用 reviews 表重算评分，修正增量维护产生的偏差
type RatingReconciler struct {
	users     UserStore
	reviews   ReviewStore
	batchSize int
	log       *zap.Logger
}

func NewRatingReconciler(users UserStore, reviews ReviewStore, log *zap.Logger) *RatingReconciler {
	return &RatingReconciler{users: users, reviews: reviews, batchSize: 500, log: log}
}

type ReconcileResult struct {
	Scanned int
	Fixed   int
}

// RunOnce 按 id 游标走完全部用户
func (r *RatingReconciler) RunOnce(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	var lastID uint64
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rows, next, err := r.users.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			return res, fmt.Errorf("reconcile list: %w", err)
		}
		if len(rows) == 0 {
			return res, nil
		}
		for _, u := range rows {
			res.Scanned++
			agg, err := r.reviews.AggregateByReviewee(ctx, u.ID)
			if err != nil {
				r.log.Warn("aggregate reviews failed", zap.Uint64("user_id", u.ID), zap.Error(err))
				continue
			}
			avg := math.Round(agg.Average*10) / 10
			if agg.Count == u.RatingCount && math.Abs(avg-u.RatingAverage) < 1e-9 {
				continue
			}
			// 以扫描时的 count 为条件，期间有新评分则留给下一轮
			ok, err := r.users.SetRating(ctx, u.ID, u.RatingCount, avg, agg.Count)
			if err != nil {
				r.log.Warn("fix rating failed", zap.Uint64("user_id", u.ID), zap.Error(err))
				continue
			}
			if !ok {
				r.log.Info("rating changed during reconcile, skipped", zap.Uint64("user_id", u.ID))
				continue
			}
			r.log.Info("rating fixed",
				zap.Uint64("user_id", u.ID),
				zap.Float64("from_average", u.RatingAverage), zap.Int64("from_count", u.RatingCount),
				zap.Float64("to_average", avg), zap.Int64("to_count", agg.Count))
			res.Fixed++
		}
		lastID = next
	}
}
