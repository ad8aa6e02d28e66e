package usecase

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"minimarket/internal/domain/entity"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/errors"
)

func reviewBy(userID string, rating int, comment string) entity.ReviewWithAuthor {
	return entity.ReviewWithAuthor{
		Review: entity.Review{
			ID:        entity.ReviewID("p1", userID),
			ProductID: "p1",
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
		},
		AuthorName: "User " + userID,
	}
}

func newReviewFixture() (*ReviewUseCase, *mockReviewRepository, *metrics.MetricsManager) {
	repo := new(mockReviewRepository)
	m := newTestMetrics()
	return NewReviewUseCase(repo, m), repo, m
}

func TestReviewSection_FindsMineAndPrefillsDraft(t *testing.T) {
	uc, repo, _ := newReviewFixture()
	repo.On("ListByProduct", mock.Anything, "p1").Return([]entity.ReviewWithAuthor{
		reviewBy("u2", 3, "ok"),
		reviewBy("u1", 4, "nice"),
	}, nil)

	s := uc.Open("p1", identity("u1"))
	require.NoError(t, s.Load(context.Background()))

	require.NotNil(t, s.Mine())
	assert.Equal(t, "p1_u1", s.Mine().ID)
	assert.Equal(t, ReviewDraft{Rating: 4, Comment: "nice"}, s.Draft())
	assert.Equal(t, "2 reviews", s.CountLabel())
}

func TestReviewSection_FormStates(t *testing.T) {
	uc, repo, _ := newReviewFixture()
	repo.On("ListByProduct", mock.Anything, "p1").Return([]entity.ReviewWithAuthor{reviewBy("u1", 4, "")}, nil)

	anon := uc.Open("p1", nil)
	assert.True(t, errors.Is(anon.OpenForm(), errors.CodeLoginRequired))
	assert.Equal(t, FormHidden, anon.Form())

	fresh := uc.Open("p1", identity("u9"))
	require.NoError(t, fresh.Load(context.Background()))
	require.NoError(t, fresh.OpenForm())
	assert.Equal(t, FormCreate, fresh.Form())
	assert.Equal(t, 5, fresh.Draft().Rating)
	fresh.Cancel()
	assert.Equal(t, FormHidden, fresh.Form())

	author := uc.Open("p1", identity("u1"))
	require.NoError(t, author.Load(context.Background()))
	require.NoError(t, author.OpenForm())
	assert.Equal(t, FormEdit, author.Form())
}

func TestReviewSection_SecondSubmitUpdatesSameRow(t *testing.T) {
	uc, repo, m := newReviewFixture()
	ctx := context.Background()

	repo.On("ListByProduct", mock.Anything, "p1").Return([]entity.ReviewWithAuthor{}, nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *entity.Review) bool {
		return r.ProductID == "p1" && r.UserID == "u1" && r.Rating == 4
	})).Return(nil).Once()
	repo.On("ListByProduct", mock.Anything, "p1").Return([]entity.ReviewWithAuthor{reviewBy("u1", 4, "")}, nil).Twice()
	repo.On("Update", mock.Anything, mock.MatchedBy(func(r *entity.Review) bool {
		return r.ID == "p1_u1" && r.Rating == 2
	})).Return(nil).Once()

	s := uc.Open("p1", identity("u1"))
	require.NoError(t, s.Load(ctx))

	msg, err := s.Submit(ctx, 4, "")
	require.NoError(t, err)
	assert.Equal(t, MsgReviewSubmitted, msg)
	assert.Equal(t, FormHidden, s.Form())

	msg, err = s.Submit(ctx, 2, "  changed my mind ")
	require.NoError(t, err)
	assert.Equal(t, MsgReviewUpdated, msg)

	repo.AssertNumberOfCalls(t, "Create", 1)
	repo.AssertNumberOfCalls(t, "Update", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("update")))
}

func TestReviewSection_RatingOutOfRange(t *testing.T) {
	uc, repo, _ := newReviewFixture()
	s := uc.Open("p1", identity("u1"))

	for _, rating := range []int{0, 6, -1} {
		_, err := s.Submit(context.Background(), rating, "")
		assert.True(t, errors.Is(err, errors.CodeValidation), "rating %d", rating)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewSection_Remove(t *testing.T) {
	uc, repo, _ := newReviewFixture()
	ctx := context.Background()
	repo.On("ListByProduct", mock.Anything, "p1").Return([]entity.ReviewWithAuthor{reviewBy("u1", 2, "meh")}, nil).Once()
	repo.On("Delete", mock.Anything, mock.MatchedBy(func(r *entity.Review) bool { return r.ID == "p1_u1" })).Return(nil)
	repo.On("ListByProduct", mock.Anything, "p1").Return([]entity.ReviewWithAuthor{}, nil)

	s := uc.Open("p1", identity("u1"))
	require.NoError(t, s.Load(ctx))

	_, err := s.Remove(ctx, false)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	msg, err := s.Remove(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, MsgReviewDeleted, msg)
	assert.Nil(t, s.Mine())
	assert.Equal(t, ReviewDraft{Rating: 5}, s.Draft())
	assert.Equal(t, "0 reviews", s.CountLabel())

	_, err = s.Remove(ctx, true)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
