package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
)

const (
	MsgReviewUpdated   = "Review updated successfully!"
	MsgReviewSubmitted = "Review submitted successfully!"
	MsgReviewDeleted   = "Review deleted!"

	defaultDraftRating = entity.MaxRating
)

type FormState string

const (
	FormHidden FormState = "hidden"
	FormCreate FormState = "create"
	FormEdit   FormState = "edit"
)

type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	metrics    *metrics.MetricsManager
}

func NewReviewUseCase(reviewRepo repository.ReviewRepository, m *metrics.MetricsManager) *ReviewUseCase {
	return &ReviewUseCase{reviewRepo: reviewRepo, metrics: m}
}

// Open starts a review section for productID as seen by viewer, who may be nil.
func (uc *ReviewUseCase) Open(productID string, viewer *entity.Identity) *ReviewSection {
	return &ReviewSection{
		uc:        uc,
		productID: productID,
		viewer:    viewer,
		form:      FormHidden,
		draft:     ReviewDraft{Rating: defaultDraftRating},
	}
}

type ReviewDraft struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewSection is the review list of one product plus the viewer's form.
type ReviewSection struct {
	uc        *ReviewUseCase
	productID string
	viewer    *entity.Identity

	reviews []entity.ReviewWithAuthor
	mine    *entity.Review
	form    FormState
	draft   ReviewDraft
}

func (s *ReviewSection) Load(ctx context.Context) error {
	reviews, err := s.uc.reviewRepo.ListByProduct(ctx, s.productID)
	if err != nil {
		return err
	}
	s.reviews = reviews

	s.mine = nil
	if s.viewer == nil {
		return nil
	}
	for i := range reviews {
		if reviews[i].UserID == s.viewer.ID {
			mine := reviews[i].Review
			s.mine = &mine
			s.draft = ReviewDraft{Rating: mine.Rating, Comment: mine.Comment}
			break
		}
	}
	return nil
}

func (s *ReviewSection) Reviews() []entity.ReviewWithAuthor { return s.reviews }

// Mine is the viewer's own review, or nil.
func (s *ReviewSection) Mine() *entity.Review { return s.mine }

func (s *ReviewSection) Form() FormState { return s.form }

func (s *ReviewSection) Draft() ReviewDraft { return s.draft }

// CountLabel renders the number of loaded reviews.
func (s *ReviewSection) CountLabel() string {
	if len(s.reviews) == 1 {
		return "1 review"
	}
	return fmt.Sprintf("%d reviews", len(s.reviews))
}

// OpenForm shows the form in edit mode when the viewer already has a review.
func (s *ReviewSection) OpenForm() error {
	if s.viewer == nil {
		return errors.LoginRequired("Please login to leave a review")
	}
	if s.mine != nil {
		s.form = FormEdit
	} else {
		s.form = FormCreate
	}
	return nil
}

func (s *ReviewSection) Cancel() {
	s.form = FormHidden
}

// Submit writes the viewer's review, updating the existing one if present, and
// reloads the list. It returns the message to show.
func (s *ReviewSection) Submit(ctx context.Context, rating int, comment string) (string, error) {
	if s.viewer == nil {
		return "", errors.LoginRequired("Please login to leave a review")
	}
	if rating < entity.MinRating || rating > entity.MaxRating {
		return "", errors.Validation(fmt.Sprintf("Rating must be between %d and %d", entity.MinRating, entity.MaxRating))
	}
	comment = strings.TrimSpace(comment)
	now := time.Now()

	var (
		msg  string
		mode string
	)
	if s.mine != nil {
		updated := *s.mine
		updated.Rating = rating
		updated.Comment = comment
		updated.CreatedAt = now
		updated.UpdatedAt = now
		if err := s.uc.reviewRepo.Update(ctx, &updated); err != nil {
			return "", err
		}
		msg, mode = MsgReviewUpdated, "update"
	} else {
		review := &entity.Review{
			ProductID: s.productID,
			UserID:    s.viewer.ID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.uc.reviewRepo.Create(ctx, review); err != nil {
			return "", err
		}
		msg, mode = MsgReviewSubmitted, "create"
	}

	s.uc.metrics.ReviewsTotal.WithLabelValues(mode).Inc()
	s.form = FormHidden
	if err := s.Load(ctx); err != nil {
		logger.Warn("reviews for %s not reloaded: %v", s.productID, err)
	}
	return msg, nil
}

// Remove deletes the viewer's review and resets the draft.
func (s *ReviewSection) Remove(ctx context.Context, confirmed bool) (string, error) {
	if s.viewer == nil {
		return "", errors.LoginRequired("")
	}
	if s.mine == nil {
		return "", errors.NotFound("Review", nil)
	}
	if !confirmed {
		return "", errors.Validation("Delete your review?")
	}

	if err := s.uc.reviewRepo.Delete(ctx, s.mine); err != nil {
		return "", err
	}

	s.uc.metrics.ReviewsTotal.WithLabelValues("delete").Inc()
	s.mine = nil
	s.form = FormHidden
	s.draft = ReviewDraft{Rating: defaultDraftRating}
	if err := s.Load(ctx); err != nil {
		logger.Warn("reviews for %s not reloaded: %v", s.productID, err)
	}
	return MsgReviewDeleted, nil
}
