package service_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Click here for free money")
	require.Equal(t, models.StatusPending, c.Status)

	approved, err := f.services.Moderation.Approve(context.Background(), f.mod, c.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusVisible, approved.Status)
	require.NotNil(t, approved.ModeratedBy)
	assert.Equal(t, f.mod.UserID, *approved.ModeratedBy)
	assert.Equal(t, models.StatusVisible, f.store.Comment(c.ID).Status)

	moderated := f.store.NotificationsOfType(models.NotificationCommentModerated)
	require.Len(t, moderated, 1)
	assert.Equal(t, f.author.UserID, moderated[0].RecipientUserID)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(moderated[0].Payload, &payload))
	assert.Equal(t, "approved", payload["action"])

	_, err = f.services.Moderation.Approve(context.Background(), f.mod, c.ID)
	assertKind(t, err, apperr.KindStateConflict, apperr.CodeInvalidState)
}

func TestApprove_HeldReplyNotifiesParentAuthor(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, f.author, "Top level thought")

	held := f.reply(t, f.others[0], parent.ID, "Click here for free money")
	require.Equal(t, models.StatusPending, held.Status)
	assert.Equal(t, 1, f.store.Comment(parent.ID).ReplyCount)
	assert.Empty(t, f.store.NotificationsOfType(models.NotificationReplyAdded))

	_, err := f.services.Moderation.Approve(context.Background(), f.mod, held.ID)
	require.NoError(t, err)

	replies := f.store.NotificationsOfType(models.NotificationReplyAdded)
	require.Len(t, replies, 1)
	assert.Equal(t, f.author.UserID, replies[0].RecipientUserID)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(replies[0].Payload, &payload))
	assert.Equal(t, f.others[0].UserID, payload["actor_id"])
	assert.Equal(t, parent.ID, payload["parent_id"])
}

func TestApprove_ReportedReplyDoesNotRenotify(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, f.author, "Top level thought")
	r := f.reply(t, f.others[0], parent.ID, "A reasonable reply")
	require.Len(t, f.store.NotificationsOfType(models.NotificationReplyAdded), 1)

	for i := 1; i < 4; i++ {
		_, err := f.services.Engagement.AddReport(context.Background(), f.others[i], r.ID, spamReport())
		require.NoError(t, err)
	}
	_, err := f.services.Moderation.Approve(context.Background(), f.mod, r.ID)
	require.NoError(t, err)

	assert.Len(t, f.store.NotificationsOfType(models.NotificationReplyAdded), 1)
}

func TestApprove_ReportedComment(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Borderline")
	for i := 0; i < 3; i++ {
		_, err := f.services.Engagement.AddReport(context.Background(), f.others[i], c.ID, spamReport())
		require.NoError(t, err)
	}
	require.Equal(t, models.StatusReported, f.store.Comment(c.ID).Status)

	approved, err := f.services.Moderation.Approve(context.Background(), f.admins[0], c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVisible, approved.Status)

	// counts survive moderation, so the next report sends it back for review
	_, err = f.services.Engagement.AddReport(context.Background(), f.others[3], c.ID, spamReport())
	require.NoError(t, err)
	stored := f.store.Comment(c.ID)
	assert.Equal(t, 4, stored.ReportCount)
	assert.Equal(t, models.StatusReported, stored.Status)
	assert.Len(t, f.store.NotificationsOfType(models.NotificationReportEscalated), 2*len(f.admins))
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Click here for free money")

	_, err := f.services.Moderation.Reject(context.Background(), f.mod, c.ID, "   ")
	assertKind(t, err, apperr.KindValidation, apperr.CodeInvalidInput)

	rejected, err := f.services.Moderation.Reject(context.Background(), f.mod, c.ID, "advertising")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "advertising", rejected.ModerationReason)

	_, err = f.services.Moderation.Reject(context.Background(), f.mod, c.ID, "again")
	assertKind(t, err, apperr.KindStateConflict, apperr.CodeInvalidState)

	// rejected comments can still be removed by their author
	res, err := f.services.Comments.Delete(context.Background(), f.author, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteHard, res.Mode)
}

func TestModeration_RequiresModerator(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Click here for free money")

	_, err := f.services.Moderation.Approve(context.Background(), f.others[0], c.ID)
	assertKind(t, err, apperr.KindAuthorization, apperr.CodeForbidden)

	_, err = f.services.Moderation.Reject(context.Background(), models.Guest(), c.ID, "spam")
	assertKind(t, err, apperr.KindUnauthenticated, "")

	_, err = f.services.Moderation.Queue(context.Background(), f.others[0], models.ListQuery{})
	assertKind(t, err, apperr.KindAuthorization, "")

	_, err = f.services.Moderation.Stats(context.Background(), f.others[0], 7)
	assertKind(t, err, apperr.KindAuthorization, "")

	_, err = f.services.Moderation.Approve(context.Background(), f.mod, uuid.NewString())
	assertKind(t, err, apperr.KindNotFound, apperr.CodeCommentNotFound)
}

func TestQueue(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.others[0], "Fine comment")
	f.clock.Advance(time.Second)
	pending := f.create(t, f.others[1], "Click here for free money")
	f.clock.Advance(time.Second)
	reported := f.create(t, f.others[2], "Borderline")
	for _, actor := range []models.Actor{f.others[0], f.others[1], f.others[3]} {
		_, err := f.services.Engagement.AddReport(context.Background(), actor, reported.ID, spamReport())
		require.NoError(t, err)
	}

	page, err := f.services.Moderation.Queue(context.Background(), f.mod, models.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	ids := []string{page.Comments[0].ID, page.Comments[1].ID}
	assert.ElementsMatch(t, []string{pending.ID, reported.ID}, ids)

	page, err = f.services.Moderation.Queue(context.Background(), f.mod, models.ListQuery{Status: "reported"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, reported.ID, page.Comments[0].ID)

	page, err = f.services.Moderation.Queue(context.Background(), f.mod, models.ListQuery{Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, f.author, "First")
	b := f.create(t, f.others[0], "Click here for free money")

	reports := []struct {
		actor   models.Actor
		comment string
		reason  string
	}{
		{f.others[1], a.ID, "spam"},
		{f.others[2], a.ID, "spam"},
		{f.others[1], b.ID, "abuse"},
	}
	for _, r := range reports {
		_, err := f.services.Engagement.AddReport(context.Background(), r.actor, r.comment, &models.ReportRequest{Reason: r.reason})
		require.NoError(t, err)
	}

	stats, err := f.services.Moderation.Stats(context.Background(), f.mod, 0)
	require.NoError(t, err)

	assert.True(t, start.Add(-7*24*time.Hour).Equal(stats.Since))
	assert.Equal(t, 3, stats.TotalReports)
	assert.Equal(t, 2, stats.ReportedComments)
	assert.Equal(t, 1, stats.PendingComments)
	assert.Equal(t, 0, stats.RejectedComments)
	require.NotEmpty(t, stats.TopReasons)
	assert.Equal(t, models.ReasonCount{Reason: "spam", Count: 2}, stats.TopReasons[0])
	require.Len(t, stats.Trend, 1)
	assert.Equal(t, "2024-03-01", stats.Trend[0].Date)
	assert.Equal(t, 3, stats.Trend[0].Count)

	_, err = f.services.Moderation.Stats(context.Background(), f.mod, 91)
	assertKind(t, err, apperr.KindValidation, "")
}

func TestUpsertFilters(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Moderation.UpsertFilters(context.Background(), f.mod, []*models.SpamFilter{
		{Pattern: "crypto giveaway", Kind: models.FilterKindKeyword, Severity: 9, Action: models.FilterActionBlock},
	})
	assertKind(t, err, apperr.KindAuthorization, apperr.CodeForbidden)

	_, err = f.services.Moderation.UpsertFilters(context.Background(), f.admins[0], nil)
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.services.Moderation.UpsertFilters(context.Background(), f.admins[0], []*models.SpamFilter{
		{Pattern: "([", Kind: models.FilterKindRegex, Severity: 3, Action: models.FilterActionFlag},
	})
	assertKind(t, err, apperr.KindValidation, apperr.CodeInvalidInput)

	// prime the filter cache so the upsert has something to invalidate
	f.create(t, f.others[0], "Before the filter")

	saved, err := f.services.Moderation.UpsertFilters(context.Background(), f.admins[0], []*models.SpamFilter{
		{Pattern: "crypto giveaway", Kind: models.FilterKindKeyword, Severity: 9, Action: models.FilterActionBlock},
		{Pattern: `w+a+t+c+h\s+n+o+w`, Kind: models.FilterKindRegex, Severity: 4, Action: models.FilterActionFlag},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, sf := range saved {
		assert.NotEmpty(t, sf.ID)
		assert.True(t, sf.Active)
	}

	_, err = f.services.Comments.Create(context.Background(), f.others[1], &models.CreateCommentRequest{
		ArticleID: f.article,
		Content:   "Join the Crypto Giveaway today",
	})
	assertKind(t, err, apperr.KindValidation, apperr.CodeContentBlocked)

	flagged := f.create(t, f.others[2], "waaatch now")
	assert.Equal(t, models.StatusPending, flagged.Status)
}

func TestNotifications_ListAndMarkRead(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Like me")
	for i := 0; i < 3; i++ {
		_, err := f.services.Engagement.AddLike(context.Background(), f.others[i], c.ID)
		require.NoError(t, err)
	}

	list, err := f.services.Notifications.List(context.Background(), f.author, false, 0)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 3)
	assert.Equal(t, 3, list.Unread)

	require.NoError(t, f.services.Notifications.MarkRead(context.Background(), f.author, list.Notifications[0].ID))

	list, err = f.services.Notifications.List(context.Background(), f.author, true, 0)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 2)
	assert.Equal(t, 2, list.Unread)

	list, err = f.services.Notifications.List(context.Background(), f.author, false, 1)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 1)

	// someone else's notification looks missing
	err = f.services.Notifications.MarkRead(context.Background(), f.others[0], list.Notifications[0].ID)
	assertKind(t, err, apperr.KindNotFound, apperr.CodeNotificationNotFound)

	empty, err := f.services.Notifications.List(context.Background(), f.others[4], false, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty.Notifications)
	assert.Empty(t, empty.Notifications)

	_, err = f.services.Notifications.List(context.Background(), models.Guest(), false, 0)
	assertKind(t, err, apperr.KindUnauthenticated, "")
}

func TestExport_ReportsCSV(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Borderline")
	_, err := f.services.Engagement.AddReport(context.Background(), f.others[0], c.ID, &models.ReportRequest{
		Reason:      "other",
		Description: "uses, commas",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = f.services.Export.StreamReports(context.Background(), f.mod, rec, "csv", start.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "comment_id", "user_id", "reason", "description", "created_at"}, rows[0])
	assert.Equal(t, c.ID, rows[1][1])
	assert.Equal(t, "uses, commas", rows[1][4])
	assert.Equal(t, start.Format(time.RFC3339), rows[1][5])
}

func TestExport_ReportsNDJSONAndJSON(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Borderline")
	for i := 0; i < 2; i++ {
		_, err := f.services.Engagement.AddReport(context.Background(), f.others[i], c.ID, spamReport())
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	require.NoError(t, f.services.Export.StreamReports(context.Background(), f.mod, rec, "", start.Add(-time.Hour)))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)

	rec = httptest.NewRecorder()
	require.NoError(t, f.services.Export.StreamReports(context.Background(), f.mod, rec, "json", start.Add(-time.Hour)))
	var reports []models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	assert.Len(t, reports, 2)

	rec = httptest.NewRecorder()
	err := f.services.Export.StreamReports(context.Background(), f.mod, rec, "xml", start)
	assertKind(t, err, apperr.KindValidation, "")

	err = f.services.Export.StreamReports(context.Background(), f.others[0], httptest.NewRecorder(), "csv", start)
	assertKind(t, err, apperr.KindAuthorization, "")
}

func TestExport_NotificationFeed(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.author, "Like me")
	_, err := f.services.Engagement.AddLike(context.Background(), f.others[0], c.ID)
	require.NoError(t, err)

	err = f.services.Export.StreamNotifications(context.Background(), f.mod, httptest.NewRecorder(), start.Add(-time.Hour))
	assertKind(t, err, apperr.KindAuthorization, "")

	rec := httptest.NewRecorder()
	require.NoError(t, f.services.Export.StreamNotifications(context.Background(), f.admins[0], rec, start.Add(-time.Hour)))
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var n models.Notification
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(rec.Body.String())), &n))
	assert.Equal(t, models.NotificationCommentLiked, n.Type)
	assert.Equal(t, f.author.UserID, n.RecipientUserID)
}
