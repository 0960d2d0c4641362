package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/repository"
)

var (
	errForeignKey     = errors.New("mocks: comment still referenced by replies")
	errCheckViolation = errors.New("mocks: counter would become negative")
	errUnknownCounter = errors.New("mocks: unknown counter")
	errInvalidJSON    = errors.New("mocks: payload is not valid JSON")
)

// MemoryStore is an in-memory repository.Store. Units of work are serialized
// and roll back by restoring a snapshot, so a failed Do leaves no trace.
type MemoryStore struct {
	mu       sync.Mutex
	state    *memState
	failures map[string]*failure

	// Commits counts units of work that committed
	Commits int
	// Attempts counts units of work started, including retries
	Attempts int
}

// Verify interface compliance
var _ repository.Store = (*MemoryStore)(nil)

type pair struct {
	commentID string
	userID    string
}

type failure struct {
	err       error
	remaining int
}

type postEntry struct {
	authorID  string
	commentID string
	at        time.Time
}

type memState struct {
	comments      map[string]*models.Comment
	likes         map[pair]*models.Like
	reports       map[pair]*models.Report
	notifications []*models.Notification
	posts         []postEntry
	users         map[string]*models.User
	articles      map[string]*models.Article
	filters       map[string]*models.SpamFilter
}

func newMemState() *memState {
	return &memState{
		comments: make(map[string]*models.Comment),
		likes:    make(map[pair]*models.Like),
		reports:  make(map[pair]*models.Report),
		users:    make(map[string]*models.User),
		articles: make(map[string]*models.Article),
		filters:  make(map[string]*models.SpamFilter),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.comments {
		c.comments[k] = cloneComment(v)
	}
	for k, v := range s.likes {
		l := *v
		c.likes[k] = &l
	}
	for k, v := range s.reports {
		r := *v
		c.reports[k] = &r
	}
	c.notifications = make([]*models.Notification, len(s.notifications))
	for i, n := range s.notifications {
		c.notifications[i] = cloneNotification(n)
	}
	c.posts = append([]postEntry(nil), s.posts...)
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.articles {
		a := *v
		c.articles[k] = &a
	}
	for k, v := range s.filters {
		f := *v
		c.filters[k] = &f
	}
	return c
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state:    newMemState(),
		failures: make(map[string]*failure),
	}
}

// FailOn makes the named operation (e.g. "Notification.Create") return err.
// times <= 0 fails every call; otherwise only the next `times` calls fail.
func (s *MemoryStore) FailOn(op string, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &failure{err: err, remaining: times}
}

// ClearFailures removes every injected failure
func (s *MemoryStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]*failure)
}

// caller holds s.mu
func (s *MemoryStore) fail(op string) error {
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(s.failures, op)
		}
	}
	return f.err
}

// Repos returns repositories that each lock the store per call
func (s *MemoryStore) Repos() *repository.Repositories {
	return s.repositories(false)
}

// Do runs fn against a snapshot-protected state, retrying once on a transient error
func (s *MemoryStore) Do(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	err := s.attempt(ctx, fn)
	if err != nil && repository.IsTransient(err) {
		err = s.attempt(ctx, fn)
	}
	return err
}

func (s *MemoryStore) attempt(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Attempts++
	if err := s.fail("Begin"); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(s.repositories(true)); err != nil {
		s.state = snapshot
		return err
	}
	if err := s.fail("Commit"); err != nil {
		s.state = snapshot
		return err
	}
	s.Commits++
	return nil
}

func (s *MemoryStore) repositories(inTx bool) *repository.Repositories {
	b := &memBase{s: s, inTx: inTx}
	return &repository.Repositories{
		Comment:      &memCommentRepo{b},
		Like:         &memLikeRepo{b},
		Report:       &memReportRepo{b},
		PostLog:      &memPostLogRepo{b},
		Notification: &memNotificationRepo{b},
		User:         &memUserRepo{b},
		Article:      &memArticleRepo{b},
		SpamFilter:   &memSpamFilterRepo{b},
	}
}

// Seed and inspection helpers

// NewMockStoreWithAdmins returns a store holding one active admin per id
func NewMockStoreWithAdmins(ids ...string) *MemoryStore {
	s := NewMemoryStore()
	for _, id := range ids {
		s.AddUser(&models.User{ID: id, Role: models.RoleAdmin, Active: true})
	}
	return s
}

// AddUser stores a user
func (s *MemoryStore) AddUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.state.users[u.ID] = &cp
}

// AddArticle stores an article
func (s *MemoryStore) AddArticle(a *models.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.state.articles[a.ID] = &cp
}

// AddComment stores a comment as-is, without touching any counter
func (s *MemoryStore) AddComment(c *models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.comments[c.ID] = cloneComment(c)
	if c.AuthorID != nil {
		s.state.posts = append(s.state.posts, postEntry{authorID: *c.AuthorID, commentID: c.ID, at: c.CreatedAt})
	}
}

// Comment returns a copy of the stored comment or nil
func (s *MemoryStore) Comment(id string) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.comments[id]
	if !ok {
		return nil
	}
	return cloneComment(c)
}

// Article returns a copy of the stored article or nil
func (s *MemoryStore) Article(id string) *models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.articles[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// LikeRows returns how many like rows exist for a comment
func (s *MemoryStore) LikeRows(commentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.state.likes {
		if k.commentID == commentID {
			n++
		}
	}
	return n
}

// ReportRows returns how many report rows exist for a comment
func (s *MemoryStore) ReportRows(commentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.state.reports {
		if k.commentID == commentID {
			n++
		}
	}
	return n
}

// Notifications returns copies of every notification in creation order
func (s *MemoryStore) Notifications() []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Notification, len(s.state.notifications))
	for i, n := range s.state.notifications {
		out[i] = cloneNotification(n)
	}
	return out
}

// NotificationsOfType returns the notifications of one type
func (s *MemoryStore) NotificationsOfType(t models.NotificationType) []*models.Notification {
	var out []*models.Notification
	for _, n := range s.Notifications() {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type memBase struct {
	s    *MemoryStore
	inTx bool
}

func (b *memBase) guard() func() {
	if b.inTx {
		return func() {}
	}
	b.s.mu.Lock()
	return b.s.mu.Unlock
}

func (b *memBase) st() *memState {
	return b.s.state
}

// memCommentRepo implements repository.CommentRepository
type memCommentRepo struct{ *memBase }

func (r *memCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	defer r.guard()()
	if err := r.s.fail("Comment.Create"); err != nil {
		return err
	}
	if _, exists := r.st().comments[c.ID]; exists {
		return repository.ErrUniqueViolation
	}
	r.st().comments[c.ID] = cloneComment(c)
	return nil
}

func (r *memCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	defer r.guard()()
	if err := r.s.fail("Comment.GetByID"); err != nil {
		return nil, err
	}
	c, ok := r.st().comments[id]
	if !ok {
		return nil, nil
	}
	return cloneComment(c), nil
}

func (r *memCommentRepo) GetForUpdate(ctx context.Context, id string) (*models.Comment, error) {
	return r.GetByID(ctx, id)
}

func (r *memCommentRepo) UpdateContent(ctx context.Context, c *models.Comment) error {
	defer r.guard()()
	if err := r.s.fail("Comment.UpdateContent"); err != nil {
		return err
	}
	stored, ok := r.st().comments[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Content = c.Content
	stored.Status = c.Status
	stored.IsEdited = c.IsEdited
	stored.EditedAt = copyTime(c.EditedAt)
	stored.SpamReason = c.SpamReason
	stored.SpamSignals = append([]string(nil), c.SpamSignals...)
	stored.Toxicity = copyFloat(c.Toxicity)
	stored.UpdatedAt = c.UpdatedAt
	return nil
}

func (r *memCommentRepo) Tombstone(ctx context.Context, id string, at time.Time) error {
	defer r.guard()()
	if err := r.s.fail("Comment.Tombstone"); err != nil {
		return err
	}
	stored, ok := r.st().comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Content = models.TombstoneContent
	stored.Status = models.StatusDeleted
	stored.UpdatedAt = at
	return nil
}

func (r *memCommentRepo) Delete(ctx context.Context, id string) error {
	defer r.guard()()
	if err := r.s.fail("Comment.Delete"); err != nil {
		return err
	}
	st := r.st()
	if _, ok := st.comments[id]; !ok {
		return repository.ErrNotFound
	}
	for _, c := range st.comments {
		if c.ParentID != nil && *c.ParentID == id {
			return errForeignKey
		}
	}
	delete(st.comments, id)
	for k := range st.likes {
		if k.commentID == id {
			delete(st.likes, k)
		}
	}
	for k := range st.reports {
		if k.commentID == id {
			delete(st.reports, k)
		}
	}
	return nil
}

func (r *memCommentRepo) TransitionStatus(ctx context.Context, id string, from []models.CommentStatus, to models.CommentStatus, meta models.ModerationMeta) (bool, error) {
	defer r.guard()()
	if err := r.s.fail("Comment.TransitionStatus"); err != nil {
		return false, err
	}
	stored, ok := r.st().comments[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range from {
		if stored.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	stored.Status = to
	stored.ModerationReason = meta.Reason
	if meta.ModeratedBy != "" {
		by := meta.ModeratedBy
		stored.ModeratedBy = &by
	} else {
		stored.ModeratedBy = nil
	}
	at := meta.At
	stored.ModeratedAt = &at
	stored.UpdatedAt = meta.At
	return true, nil
}

func (r *memCommentRepo) AdjustCounter(ctx context.Context, id string, counter models.Counter, delta int) (models.CounterUpdate, error) {
	defer r.guard()()
	if err := r.s.fail("Comment.AdjustCounter"); err != nil {
		return models.CounterUpdate{}, err
	}
	stored, ok := r.st().comments[id]
	if !ok {
		return models.CounterUpdate{}, repository.ErrNotFound
	}
	var field *int
	switch counter {
	case models.CounterLikes:
		field = &stored.LikeCount
	case models.CounterReports:
		field = &stored.ReportCount
	case models.CounterReplies:
		field = &stored.ReplyCount
	default:
		return models.CounterUpdate{}, errUnknownCounter
	}
	if *field+delta < 0 {
		return models.CounterUpdate{}, errCheckViolation
	}
	*field += delta
	return models.CounterUpdate{Value: *field, Status: stored.Status}, nil
}

func (r *memCommentRepo) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	defer r.guard()()
	n := 0
	for _, c := range r.st().comments {
		if c.Author() == authorID {
			n++
		}
	}
	return n, nil
}

func (r *memCommentRepo) CountReportedByAuthor(ctx context.Context, authorID string) (int, error) {
	defer r.guard()()
	n := 0
	for _, c := range r.st().comments {
		if c.Author() == authorID && c.Status == models.StatusReported {
			n++
		}
	}
	return n, nil
}

func (r *memCommentRepo) RecentByAuthor(ctx context.Context, authorID string, since time.Time, limit int) ([]models.PriorComment, error) {
	defer r.guard()()
	var recent []models.PriorComment
	for _, c := range r.sorted() {
		if c.Author() == authorID && !c.CreatedAt.Before(since) && c.Status != models.StatusDeleted {
			recent = append(recent, models.PriorComment{Content: c.Content, CreatedAt: c.CreatedAt})
		}
	}
	// newest first
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (r *memCommentRepo) List(ctx context.Context, filter models.CommentFilter) ([]*models.Comment, int, error) {
	defer r.guard()()
	if err := r.s.fail("Comment.List"); err != nil {
		return nil, 0, err
	}
	matched := make([]*models.Comment, 0)
	for _, c := range r.sorted() {
		if filter.ArticleID != "" && c.ArticleID != filter.ArticleID {
			continue
		}
		if filter.TopLevelOnly && c.ParentID != nil {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			continue
		}
		matched = append(matched, cloneComment(c))
	}
	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *memCommentRepo) CountByStatus(ctx context.Context) (map[models.CommentStatus]int, error) {
	defer r.guard()()
	counts := make(map[models.CommentStatus]int)
	for _, c := range r.st().comments {
		counts[c.Status]++
	}
	return counts, nil
}

func (r *memCommentRepo) sorted() []*models.Comment {
	list := make([]*models.Comment, 0, len(r.st().comments))
	for _, c := range r.st().comments {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// memLikeRepo implements repository.LikeRepository
type memLikeRepo struct{ *memBase }

func (r *memLikeRepo) Insert(ctx context.Context, like *models.Like) error {
	defer r.guard()()
	if err := r.s.fail("Like.Insert"); err != nil {
		return err
	}
	k := pair{like.CommentID, like.UserID}
	if _, exists := r.st().likes[k]; exists {
		return repository.ErrUniqueViolation
	}
	cp := *like
	r.st().likes[k] = &cp
	return nil
}

func (r *memLikeRepo) Delete(ctx context.Context, commentID, userID string) (bool, error) {
	defer r.guard()()
	if err := r.s.fail("Like.Delete"); err != nil {
		return false, err
	}
	k := pair{commentID, userID}
	if _, exists := r.st().likes[k]; !exists {
		return false, nil
	}
	delete(r.st().likes, k)
	return true, nil
}

// memReportRepo implements repository.ReportRepository
type memReportRepo struct{ *memBase }

func (r *memReportRepo) Insert(ctx context.Context, report *models.Report) error {
	defer r.guard()()
	if err := r.s.fail("Report.Insert"); err != nil {
		return err
	}
	k := pair{report.CommentID, report.UserID}
	if _, exists := r.st().reports[k]; exists {
		return repository.ErrUniqueViolation
	}
	cp := *report
	r.st().reports[k] = &cp
	return nil
}

func (r *memReportRepo) since(since time.Time) []*models.Report {
	var list []*models.Report
	for _, rep := range r.st().reports {
		if !rep.CreatedAt.Before(since) {
			list = append(list, rep)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r *memReportRepo) CountSince(ctx context.Context, since time.Time) (int, int, error) {
	defer r.guard()()
	list := r.since(since)
	comments := make(map[string]bool)
	for _, rep := range list {
		comments[rep.CommentID] = true
	}
	return len(list), len(comments), nil
}

func (r *memReportRepo) TopReasons(ctx context.Context, since time.Time, limit int) ([]models.ReasonCount, error) {
	defer r.guard()()
	counts := make(map[string]int)
	for _, rep := range r.since(since) {
		counts[rep.Reason]++
	}
	reasons := make([]models.ReasonCount, 0, len(counts))
	for reason, n := range counts {
		reasons = append(reasons, models.ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(reasons, func(i, j int) bool {
		if reasons[i].Count == reasons[j].Count {
			return reasons[i].Reason < reasons[j].Reason
		}
		return reasons[i].Count > reasons[j].Count
	})
	if limit > 0 && len(reasons) > limit {
		reasons = reasons[:limit]
	}
	return reasons, nil
}

func (r *memReportRepo) DailyCounts(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	defer r.guard()()
	days := make([]models.DailyCount, 0)
	for _, rep := range r.since(since) {
		day := rep.CreatedAt.UTC().Format("2006-01-02")
		if n := len(days); n > 0 && days[n-1].Date == day {
			days[n-1].Count++
			continue
		}
		days = append(days, models.DailyCount{Date: day, Count: 1})
	}
	return days, nil
}

func (r *memReportRepo) StreamSince(ctx context.Context, since time.Time, callback func(*models.Report) error) error {
	unlock := r.guard()
	list := r.since(since)
	copies := make([]models.Report, len(list))
	for i, rep := range list {
		copies[i] = *rep
	}
	unlock()

	for i := range copies {
		if err := callback(&copies[i]); err != nil {
			return err
		}
	}
	return nil
}

// memPostLogRepo implements repository.PostLogRepository
type memPostLogRepo struct{ *memBase }

func (r *memPostLogRepo) Record(ctx context.Context, authorID, commentID string, at time.Time) error {
	defer r.guard()()
	if err := r.s.fail("PostLog.Record"); err != nil {
		return err
	}
	r.st().posts = append(r.st().posts, postEntry{authorID: authorID, commentID: commentID, at: at})
	return nil
}

func (r *memPostLogRepo) CountSince(ctx context.Context, authorID string, since time.Time) (int, error) {
	defer r.guard()()
	n := 0
	for _, p := range r.st().posts {
		if p.authorID == authorID && !p.at.Before(since) {
			n++
		}
	}
	return n, nil
}

// memNotificationRepo implements repository.NotificationRepository
type memNotificationRepo struct{ *memBase }

func (r *memNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	defer r.guard()()
	if err := r.s.fail("Notification.Create"); err != nil {
		return err
	}
	if !json.Valid(n.Payload) {
		return errInvalidJSON
	}
	r.st().notifications = append(r.st().notifications, cloneNotification(n))
	return nil
}

func (r *memNotificationRepo) ListForRecipient(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	defer r.guard()()
	list := make([]*models.Notification, 0)
	all := r.st().notifications
	for i := len(all) - 1; i >= 0; i-- {
		n := all[i]
		if n.RecipientUserID != userID || (unreadOnly && n.Read) {
			continue
		}
		list = append(list, cloneNotification(n))
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

func (r *memNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	defer r.guard()()
	count := 0
	for _, n := range r.st().notifications {
		if n.RecipientUserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	defer r.guard()()
	for _, n := range r.st().notifications {
		if n.ID == id && n.RecipientUserID == userID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *memNotificationRepo) StreamSince(ctx context.Context, since time.Time, callback func(*models.Notification) error) error {
	unlock := r.guard()
	var list []*models.Notification
	for _, n := range r.st().notifications {
		if n.CreatedAt.After(since) {
			list = append(list, cloneNotification(n))
		}
	}
	unlock()

	for _, n := range list {
		if err := callback(n); err != nil {
			return err
		}
	}
	return nil
}

// memUserRepo implements repository.UserRepository
type memUserRepo struct{ *memBase }

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer r.guard()()
	if err := r.s.fail("User.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.st().users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) ListIDsByRole(ctx context.Context, roles ...models.Role) ([]string, error) {
	defer r.guard()()
	if err := r.s.fail("User.ListIDsByRole"); err != nil {
		return nil, err
	}
	var ids []string
	for _, u := range r.st().users {
		if !u.Active {
			continue
		}
		for _, role := range roles {
			if u.Role == role {
				ids = append(ids, u.ID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// memArticleRepo implements repository.ArticleRepository
type memArticleRepo struct{ *memBase }

func (r *memArticleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	defer r.guard()()
	a, ok := r.st().articles[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memArticleRepo) AdjustCommentCount(ctx context.Context, id string, delta int) error {
	defer r.guard()()
	if err := r.s.fail("Article.AdjustCommentCount"); err != nil {
		return err
	}
	a, ok := r.st().articles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.CommentCount+delta < 0 {
		return errCheckViolation
	}
	a.CommentCount += delta
	return nil
}

// memSpamFilterRepo implements repository.SpamFilterRepository
type memSpamFilterRepo struct{ *memBase }

func (r *memSpamFilterRepo) ListActive(ctx context.Context) ([]*models.SpamFilter, error) {
	defer r.guard()()
	if err := r.s.fail("SpamFilter.ListActive"); err != nil {
		return nil, err
	}
	list := make([]*models.SpamFilter, 0)
	for _, f := range r.st().filters {
		if f.Active {
			cp := *f
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Severity == list[j].Severity {
			return list[i].Pattern < list[j].Pattern
		}
		return list[i].Severity > list[j].Severity
	})
	return list, nil
}

func (r *memSpamFilterRepo) Upsert(ctx context.Context, f *models.SpamFilter) error {
	defer r.guard()()
	if err := r.s.fail("SpamFilter.Upsert"); err != nil {
		return err
	}
	key := f.Kind + "|" + strings.ToLower(f.Pattern)
	if existing, ok := r.st().filters[key]; ok {
		existing.Severity = f.Severity
		existing.Action = f.Action
		existing.Active = f.Active
		existing.UpdatedAt = f.UpdatedAt
		f.ID = existing.ID
		return nil
	}
	cp := *f
	r.st().filters[key] = &cp
	return nil
}

func containsStatus(list []models.CommentStatus, s models.CommentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.ParentID = copyString(c.ParentID)
	cp.AuthorID = copyString(c.AuthorID)
	cp.ModeratedBy = copyString(c.ModeratedBy)
	cp.EditedAt = copyTime(c.EditedAt)
	cp.ModeratedAt = copyTime(c.ModeratedAt)
	cp.Toxicity = copyFloat(c.Toxicity)
	if c.SpamSignals != nil {
		cp.SpamSignals = append([]string(nil), c.SpamSignals...)
	}
	return &cp
}

func cloneNotification(n *models.Notification) *models.Notification {
	cp := *n
	cp.Payload = append([]byte(nil), n.Payload...)
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
