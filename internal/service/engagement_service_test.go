package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spamReport() *models.ReportRequest {
	return &models.ReportRequest{Reason: "spam"}
}

func TestAddLike(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Like me")

	res, err := f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LikeCount)

	_, err = f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	assertKind(t, err, apperr.KindDuplicate, apperr.CodeAlreadyLiked)

	assert.Equal(t, 1, f.store.Comment(c.ID).LikeCount)
	assert.Equal(t, 1, f.store.LikeRows(c.ID))

	liked := f.store.NotificationsOfType(models.NotificationCommentLiked)
	require.Len(t, liked, 1)
	assert.Equal(t, f.author.UserID, liked[0].RecipientUserID)
}

func TestAddLike_OwnCommentIsSilent(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Like me")

	res, err := f.services.Engagement.AddLike(context.Background(), f.author, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LikeCount)
	assert.Empty(t, f.store.NotificationsOfType(models.NotificationCommentLiked))
}

func TestAddLike_Guards(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Engagement.AddLike(context.Background(), models.Guest(), uuid.NewString())
	assertKind(t, err, apperr.KindUnauthenticated, "")

	_, err = f.services.Engagement.AddLike(context.Background(), f.others[0], "nope")
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.services.Engagement.AddLike(context.Background(), f.others[0], uuid.NewString())
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)

	c := f.create(t, f.author, "Short lived")
	_, err = f.services.Comments.Delete(context.Background(), f.author, c.ID)
	require.NoError(t, err)
	_, err = f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)
}

func TestAddLike_RejectedComment(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Click here for free money")
	_, err := f.services.Moderation.Reject(context.Background(), f.mod, c.ID, "advertising")
	require.NoError(t, err)

	_, err = f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)

	_, err = f.services.Engagement.AddLike(context.Background(), f.mod, c.ID)
	assertKind(t, err, apperr.KindStateConflict, apperr.CodeInvalidState)
	assert.Equal(t, 0, f.store.LikeRows(c.ID))
}

func TestAddLike_PendingCommentIsHiddenFromOthers(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Click here for free money")
	require.Equal(t, models.StatusPending, c.Status)

	_, err := f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)
	assert.Equal(t, 0, f.store.LikeRows(c.ID))
	assert.Equal(t, 0, f.store.Comment(c.ID).LikeCount)
	assert.Empty(t, f.store.NotificationsOfType(models.NotificationCommentLiked))

	// staff reviewing the queue can still see and act on it
	res, err := f.services.Engagement.AddLike(context.Background(), f.mod, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LikeCount)
}

func TestAddLike_ConcurrentSameUser(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Popular")

	var ok, dup int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case apperr.Is(err, apperr.KindDuplicate):
				atomic.AddInt32(&dup, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(19), dup)
	assert.Equal(t, 1, f.store.Comment(c.ID).LikeCount)
	assert.Equal(t, 1, f.store.LikeRows(c.ID))
}

func TestAddLike_ConcurrentDistinctUsers(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Popular")

	likers := make([]models.Actor, 0, 30)
	for i := 0; i < 30; i++ {
		likers = append(likers, f.addUser(t, models.RoleUser))
	}

	var wg sync.WaitGroup
	for _, actor := range likers {
		wg.Add(1)
		go func(actor models.Actor) {
			defer wg.Done()
			_, err := f.services.Engagement.AddLike(context.Background(), actor, c.ID)
			assert.NoError(t, err)
		}(actor)
	}
	wg.Wait()

	assert.Equal(t, 30, f.store.Comment(c.ID).LikeCount)
	assert.Equal(t, f.store.LikeRows(c.ID), f.store.Comment(c.ID).LikeCount)
}

func TestAddLike_NotificationFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Like me")
	f.store.FailOn("Notification.Create", errors.New("disk full"), 0)

	for i := 0; i < 2; i++ {
		_, err := f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
		require.Error(t, err)
	}

	assert.Equal(t, 0, f.store.LikeRows(c.ID))
	assert.Equal(t, 0, f.store.Comment(c.ID).LikeCount)

	// a retry by the client succeeds once the store recovers
	f.store.ClearFailures()
	res, err := f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LikeCount)
}

func TestRemoveLike(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Like me")

	_, err := f.services.Engagement.RemoveLike(context.Background(), f.others[0], c.ID)
	assertKind(t, err, apperr.KindNotFound, apperr.CodeLikeNotFound)

	_, err = f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	require.NoError(t, err)
	_, err = f.services.Engagement.AddLike(context.Background(), f.others[1], c.ID)
	require.NoError(t, err)

	res, err := f.services.Engagement.RemoveLike(context.Background(), f.others[0], c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LikeCount)
	assert.Equal(t, 1, f.store.LikeRows(c.ID))

	_, err = f.services.Engagement.RemoveLike(context.Background(), f.others[0], c.ID)
	assertKind(t, err, apperr.KindNotFound, apperr.CodeLikeNotFound)
	assert.Equal(t, 1, f.store.Comment(c.ID).LikeCount)
}

func TestAddReport(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Questionable")

	r, err := f.services.Engagement.AddReport(context.Background(), f.others[0], c.ID, &models.ReportRequest{
		Reason:      "off_topic",
		Description: "  nothing to do with the article  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "off_topic", r.Reason)
	assert.Equal(t, f.others[0].UserID, r.UserID)
	assert.Equal(t, 1, f.store.Comment(c.ID).ReportCount)
	assert.Equal(t, models.StatusVisible, f.store.Comment(c.ID).Status)

	_, err = f.services.Engagement.AddReport(context.Background(), f.others[0], c.ID, spamReport())
	assertKind(t, err, apperr.KindDuplicate, apperr.CodeAlreadyReported)
	assert.Equal(t, 1, f.store.ReportRows(c.ID))
}

func TestAddReport_InvalidReason(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Questionable")

	_, err := f.services.Engagement.AddReport(context.Background(), f.others[0], c.ID, &models.ReportRequest{Reason: "boring"})
	assertKind(t, err, apperr.KindValidation, apperr.CodeInvalidInput)
	assert.Equal(t, 0, f.store.ReportRows(c.ID))
}

func TestAddReport_SelfReportForbidden(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "My own words")

	_, err := f.services.Engagement.AddReport(context.Background(), f.author, c.ID, spamReport())

	assertKind(t, err, apperr.KindAuthorization, apperr.CodeSelfReport)
	assert.Equal(t, 0, f.store.ReportRows(c.ID))
	assert.Equal(t, 0, f.store.Comment(c.ID).ReportCount)
}

func TestAddReport_EscalatesOnceAtThreshold(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Borderline")

	for i := 0; i < 2; i++ {
		_, err := f.services.Engagement.AddReport(context.Background(), f.others[i], c.ID, spamReport())
		require.NoError(t, err)
	}
	assert.Equal(t, models.StatusVisible, f.store.Comment(c.ID).Status)
	assert.Empty(t, f.store.NotificationsOfType(models.NotificationReportEscalated))

	_, err := f.services.Engagement.AddReport(context.Background(), f.others[2], c.ID, spamReport())
	require.NoError(t, err)

	stored := f.store.Comment(c.ID)
	assert.Equal(t, models.StatusReported, stored.Status)
	assert.Equal(t, 3, stored.ReportCount)
	escalated := f.store.NotificationsOfType(models.NotificationReportEscalated)
	require.Len(t, escalated, len(f.admins))
	var recipients []string
	for _, n := range escalated {
		recipients = append(recipients, n.RecipientUserID)
	}
	assert.ElementsMatch(t, []string{f.admins[0].UserID, f.admins[1].UserID}, recipients)

	for i := 3; i < 5; i++ {
		_, err := f.services.Engagement.AddReport(context.Background(), f.others[i], c.ID, spamReport())
		require.NoError(t, err)
	}
	assert.Equal(t, 5, f.store.Comment(c.ID).ReportCount)
	assert.Len(t, f.store.NotificationsOfType(models.NotificationReportEscalated), len(f.admins))

	// reported comments leave the public view
	_, err = f.services.Comments.Get(context.Background(), models.Guest(), c.ID)
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)
}

func TestAddReport_ConcurrentReportersEscalateOnce(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Borderline")

	reporters := make([]models.Actor, 0, 10)
	for i := 0; i < 10; i++ {
		reporters = append(reporters, f.addUser(t, models.RoleUser))
	}

	var wg sync.WaitGroup
	for _, actor := range reporters {
		wg.Add(1)
		go func(actor models.Actor) {
			defer wg.Done()
			_, err := f.services.Engagement.AddReport(context.Background(), actor, c.ID, spamReport())
			assert.NoError(t, err)
		}(actor)
	}
	wg.Wait()

	assert.Equal(t, 10, f.store.Comment(c.ID).ReportCount)
	assert.Equal(t, 10, f.store.ReportRows(c.ID))
	assert.Len(t, f.store.NotificationsOfType(models.NotificationReportEscalated), len(f.admins))
}

func TestAddReport_RejectedComment(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Click here for free money")
	_, err := f.services.Moderation.Reject(context.Background(), f.mod, c.ID, "advertising")
	require.NoError(t, err)

	_, err = f.services.Engagement.AddReport(context.Background(), f.others[0], c.ID, spamReport())
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)

	_, err = f.services.Engagement.AddReport(context.Background(), f.mod, c.ID, spamReport())
	assertKind(t, err, apperr.KindStateConflict, apperr.CodeInvalidState)
}

func TestAddReport_PendingCommentIsHiddenFromOthers(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Click here for free money")
	require.Equal(t, models.StatusPending, c.Status)

	_, err := f.services.Engagement.AddReport(context.Background(), f.others[0], c.ID, spamReport())
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)

	stored := f.store.Comment(c.ID)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 0, stored.ReportCount)
	assert.Equal(t, 0, f.store.ReportRows(c.ID))
	assert.Empty(t, f.store.NotificationsOfType(models.NotificationReportEscalated))
}
