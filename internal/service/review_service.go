package service

import (
	"context"
	"fmt"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"

	"go.uber.org/zap"
)

type ReviewService struct {
	reviews  ReviewStore
	users    UserStore
	apps     ApplicationStore
	rating   *RatingAggregator
	notifier Notifier
	log      *zap.Logger
}

func NewReviewService(reviews ReviewStore, users UserStore, apps ApplicationStore, rating *RatingAggregator, notifier Notifier, log *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, users: users, apps: apps, rating: rating, notifier: notifier, log: log}
}

type CreateReviewInput struct {
	RevieweeID    uint64
	OpportunityID uint64
	Rating        int
	Comment       string
	ReviewType    string
}

func (s *ReviewService) Create(ctx context.Context, caller Caller, in CreateReviewInput) (*model.Review, error) {
	if !model.ValidReviewType(in.ReviewType) {
		return nil, ErrInvalidReview
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if in.RevieweeID == caller.ID {
		return nil, ErrSelfReview
	}

	reviewee, err := s.users.FindByID(ctx, in.RevieweeID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find reviewee: %w", err)
	}
	if reviewee.Role != model.RevieweeRole(in.ReviewType) || caller.Role != model.ReviewerRole(in.ReviewType) {
		return nil, ErrRoleMismatch
	}

	exists, err := s.reviews.Exists(ctx, caller.ID, in.RevieweeID, in.OpportunityID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	// 关联活动时志愿者一方必须真正参与过
	if in.OpportunityID != 0 {
		volunteerID := caller.ID
		if in.ReviewType == model.ReviewOrgToVolunteer {
			volunteerID = in.RevieweeID
		}
		ok, err := s.apps.HasParticipation(ctx, in.OpportunityID, volunteerID)
		if err != nil {
			return nil, fmt.Errorf("check participation: %w", err)
		}
		if !ok {
			return nil, ErrNotParticipant
		}
	}

	rv := &model.Review{
		ReviewerID:    caller.ID,
		RevieweeID:    in.RevieweeID,
		OpportunityID: in.OpportunityID,
		ReviewType:    in.ReviewType,
		Rating:        in.Rating,
		Comment:       pkg.Sanitize(in.Comment, 1000),
		IsVerified:    in.OpportunityID != 0,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	// 评价已落库，评分失败交给对账修正
	if _, err := s.rating.Record(ctx, in.RevieweeID, in.Rating); err != nil {
		s.log.Error("record rating failed",
			zap.Uint64("review_id", rv.ID), zap.Uint64("reviewee_id", in.RevieweeID), zap.Error(err))
	}
	s.notifier.Notify(ctx, newReview(in.RevieweeID, caller.Name, in.Rating))
	return rv, nil
}

func (s *ReviewService) Get(ctx context.Context, id uint64) (*model.Review, error) {
	rv, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return rv, nil
}

func (s *ReviewService) ListForUser(ctx context.Context, userID uint64, reviewType string, page, limit int) (Page[model.Review], error) {
	if reviewType != "" && !model.ValidReviewType(reviewType) {
		return Page[model.Review]{}, ErrInvalidReview
	}
	page, limit = pkg.Paging(page, limit)
	list, total, err := s.reviews.ListByReviewee(ctx, userID, reviewType, pkg.Offset(page, limit), limit)
	if err != nil {
		return Page[model.Review]{}, fmt.Errorf("list reviews: %w", err)
	}
	return newPage(list, total, page, limit), nil
}
