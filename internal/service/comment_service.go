package service

import (
	"context"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/notify"
	"github.com/comment-moderation-api/internal/repository"
	"github.com/comment-moderation-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	*deps
	log zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(d *deps) *commentService {
	return &commentService{
		deps: d,
		log:  d.log.With().Str("service", "comments").Logger(),
	}
}

// Create classifies and stores a new comment. Article and parent counters
// and the reply notification commit together with the row.
func (s *commentService) Create(ctx context.Context, actor models.Actor, req *models.CreateCommentRequest) (*models.Comment, error) {
	if errs := s.validator.ValidateCreate(req, actor.IsGuest()); len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	repos := s.store.Repos()
	article, err := repos.Article.GetByID(ctx, req.ArticleID)
	if err != nil {
		return nil, wrap(err, "comments: load article")
	}
	if article == nil {
		return nil, apperr.NotFound(apperr.CodeArticleNotFound, "article not found")
	}
	if !article.AllowComments {
		return nil, apperr.Forbidden(apperr.CodeCommentsClosed, "comments are closed for this article")
	}

	if req.ParentID != nil {
		parent, err := repos.Comment.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, wrap(err, "comments: load parent")
		}
		if err := checkParent(parent, req.ArticleID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	c := &models.Comment{
		ID:        uuid.NewString(),
		ArticleID: req.ArticleID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		Status:    models.StatusVisible,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actor.IsGuest() {
		c.GuestName = req.GuestName
	} else {
		author := actor.UserID
		c.AuthorID = &author
	}

	if actor.IsGuest() || !actor.Role.IsStaff() {
		result, err := s.classify(ctx, actor.UserID, c.Content, now, false)
		if err != nil {
			return nil, wrap(err, "comments: classify")
		}
		v := result.verdict
		if sig, rejected := v.Rejection(); rejected {
			s.log.Info().
				Str("author_id", actor.UserID).
				Str("article_id", c.ArticleID).
				Str("reason", string(sig.Reason)).
				Str("trust", string(v.Trust)).
				Msg("Comment rejected by classifier")
			return nil, rejectionError(sig)
		}
		if v.IsSpam {
			c.Status = models.StatusPending
		}
		c.SpamReason = string(v.Reason)
		c.SpamSignals = v.SignalStrings()
		c.Toxicity = result.toxicity
	}

	err = s.store.Do(ctx, func(tx *repository.Repositories) error {
		var parent *models.Comment
		if c.ParentID != nil {
			p, err := tx.Comment.GetForUpdate(ctx, *c.ParentID)
			if err != nil {
				return err
			}
			if err := checkParent(p, c.ArticleID); err != nil {
				return err
			}
			parent = p
		}

		if err := tx.Comment.Create(ctx, c); err != nil {
			return err
		}
		if c.AuthorID != nil {
			if err := tx.PostLog.Record(ctx, *c.AuthorID, c.ID, now); err != nil {
				return err
			}
		}
		if err := tx.Article.AdjustCommentCount(ctx, c.ArticleID, 1); err != nil {
			return err
		}
		if parent == nil {
			return nil
		}

		upd, err := tx.Comment.AdjustCounter(ctx, parent.ID, models.CounterReplies, 1)
		if err != nil {
			return err
		}
		parent.ReplyCount = upd.Value
		// held replies notify the parent author once approved
		if c.Status != models.StatusVisible {
			return nil
		}
		_, err = s.fanout.Emit(ctx, tx, notify.Event{
			Type:    models.NotificationReplyAdded,
			Comment: c,
			Parent:  parent,
			ActorID: actor.UserID,
		})
		return err
	})
	if err != nil {
		return nil, wrap(err, "comments: create")
	}

	s.log.Info().
		Str("comment_id", c.ID).
		Str("article_id", c.ArticleID).
		Str("status", string(c.Status)).
		Str("spam_reason", c.SpamReason).
		Msg("Comment created")

	c.ContentHTML = s.renderer.HTML(c.Content)
	return c, nil
}

func checkParent(parent *models.Comment, articleID string) error {
	if parent == nil {
		return apperr.NotFound(apperr.CodeParentNotFound, "parent comment not found")
	}
	if parent.ArticleID != articleID {
		return apperr.Invalid("parent_id", "parent comment belongs to another article")
	}
	if !parent.Status.Engageable() {
		return apperr.Conflict(apperr.CodeInvalidState, "cannot reply to a deleted or rejected comment")
	}
	return nil
}

// Edit replaces the content of the actor's own comment inside the edit window.
// A flagged edit of a visible comment sends it back to review.
func (s *commentService) Edit(ctx context.Context, actor models.Actor, id, content string) (*models.Comment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("id", id); err != nil {
		return nil, err
	}
	content, errs := s.validator.Content(content)
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	now := s.now().UTC()
	window := s.cfg.Moderation.EditWindow

	current, err := s.store.Repos().Comment.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(err, "comments: load")
	}
	if current == nil || !visibleTo(current, actor) {
		return nil, commentNotFound()
	}
	if err := checkEditable(current, actor, now, window); err != nil {
		return nil, err
	}

	var result classification
	if !actor.Role.IsStaff() {
		result, err = s.classify(ctx, actor.UserID, content, now, true)
		if err != nil {
			return nil, wrap(err, "comments: classify edit")
		}
		if sig, rejected := result.verdict.Rejection(); rejected {
			return nil, rejectionError(sig)
		}
	}

	var updated *models.Comment
	err = s.store.Do(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Comment.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return commentNotFound()
		}
		if err := checkEditable(c, actor, now, window); err != nil {
			return err
		}

		editedAt := now
		c.Content = content
		c.IsEdited = true
		c.EditedAt = &editedAt
		c.UpdatedAt = now
		c.SpamReason = string(result.verdict.Reason)
		c.SpamSignals = result.verdict.SignalStrings()
		c.Toxicity = result.toxicity
		if result.verdict.IsSpam {
			if next, ok := models.NextStatus(c.Status, models.TransitionHold); ok {
				c.Status = next
			}
		}

		if err := tx.Comment.UpdateContent(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, wrap(err, "comments: edit")
	}

	s.log.Info().Str("comment_id", id).Str("status", string(updated.Status)).Msg("Comment edited")
	updated.ContentHTML = s.renderer.HTML(updated.Content)
	return updated, nil
}

// Delete removes a comment. Without replies the row is removed; otherwise it
// becomes a tombstone so the replies keep their parent.
func (s *commentService) Delete(ctx context.Context, actor models.Actor, id string) (*models.DeleteResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("id", id); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var result *models.DeleteResult
	err := s.store.Do(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Comment.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return commentNotFound()
		}
		if !c.IsAuthoredBy(actor.UserID) && !actor.Role.IsModerator() {
			return apperr.Forbidden(apperr.CodeNotOwner, "only the author or a moderator can delete this comment")
		}
		if c.Status == models.StatusDeleted {
			return apperr.Conflict(apperr.CodeAlreadyDeleted, "comment is already deleted")
		}

		if c.ReplyCount > 0 {
			if _, ok := models.NextStatus(c.Status, models.TransitionTombstone); !ok {
				return apperr.Conflict(apperr.CodeInvalidState, "comment cannot be deleted")
			}
			if err := tx.Comment.Tombstone(ctx, c.ID, now); err != nil {
				return err
			}
			if err := tx.Article.AdjustCommentCount(ctx, c.ArticleID, -1); err != nil {
				return err
			}
			result = &models.DeleteResult{ID: c.ID, Mode: models.DeleteSoft, Deleted: true}
			return nil
		}

		if err := tx.Comment.Delete(ctx, c.ID); err != nil {
			return err
		}
		if err := tx.Article.AdjustCommentCount(ctx, c.ArticleID, -1); err != nil {
			return err
		}
		if err := purgeEmptyTombstones(ctx, tx, c.ParentID); err != nil {
			return err
		}
		result = &models.DeleteResult{ID: c.ID, Mode: models.DeleteHard, Deleted: true}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "comments: delete")
	}

	s.log.Info().
		Str("comment_id", id).
		Str("mode", string(result.Mode)).
		Str("actor_id", actor.UserID).
		Msg("Comment deleted")
	return result, nil
}

// purgeEmptyTombstones decrements the parent's reply count after a hard delete and
// removes tombstones left without replies, walking up the thread.
func purgeEmptyTombstones(ctx context.Context, tx *repository.Repositories, parentID *string) error {
	for parentID != nil {
		upd, err := tx.Comment.AdjustCounter(ctx, *parentID, models.CounterReplies, -1)
		if err != nil {
			return err
		}
		if upd.Value > 0 || upd.Status != models.StatusDeleted {
			return nil
		}

		parent, err := tx.Comment.GetByID(ctx, *parentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		// the article count was already decremented when the parent was tombstoned
		if err := tx.Comment.Delete(ctx, parent.ID); err != nil {
			return err
		}
		parentID = parent.ParentID
	}
	return nil
}

// Get returns a single comment the actor is allowed to see
func (s *commentService) Get(ctx context.Context, actor models.Actor, id string) (*models.Comment, error) {
	if err := validation.ValidateID("id", id); err != nil {
		return nil, err
	}

	c, err := s.store.Repos().Comment.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(err, "comments: get")
	}
	if c == nil || !visibleTo(c, actor) {
		return nil, commentNotFound()
	}
	s.present(c)
	return c, nil
}

// ListForArticle pages through an article's comments. The public sees visible
// comments and tombstones; moderators may filter by any status.
func (s *commentService) ListForArticle(ctx context.Context, actor models.Actor, articleID string, q models.ListQuery) (*models.CommentPage, error) {
	if err := validation.ValidateID("article_id", articleID); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateListQuery(&q); len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	repos := s.store.Repos()
	article, err := repos.Article.GetByID(ctx, articleID)
	if err != nil {
		return nil, wrap(err, "comments: load article")
	}
	if article == nil {
		return nil, apperr.NotFound(apperr.CodeArticleNotFound, "article not found")
	}

	statuses := []models.CommentStatus{models.StatusVisible, models.StatusDeleted}
	if actor.Role.IsModerator() {
		switch q.Status {
		case "":
		case "all":
			statuses = nil
		default:
			statuses = []models.CommentStatus{models.CommentStatus(q.Status)}
		}
	}

	filter := models.CommentFilter{ArticleID: articleID, Statuses: statuses, TopLevelOnly: q.TopLevel}
	page, err := s.page(ctx, filter, q)
	if err != nil {
		return nil, wrap(err, "comments: list")
	}
	return page, nil
}

func (d *deps) page(ctx context.Context, filter models.CommentFilter, q models.ListQuery) (*models.CommentPage, error) {
	filter.Limit = q.Limit
	filter.Offset = (q.Page - 1) * q.Limit

	comments, total, err := d.store.Repos().Comment.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		d.present(c)
	}

	pages := (total + q.Limit - 1) / q.Limit
	return &models.CommentPage{
		Comments: comments,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
		Pages:    pages,
	}, nil
}

// present fills the rendered HTML; tombstones carry no markup
func (d *deps) present(c *models.Comment) {
	if c.Status == models.StatusDeleted {
		c.ContentHTML = ""
		return
	}
	c.ContentHTML = d.renderer.HTML(c.Content)
}
