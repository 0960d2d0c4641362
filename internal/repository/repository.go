package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/comment-moderation-api/internal/models"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var (
	// ErrUniqueViolation is returned when an insert hits a unique constraint
	ErrUniqueViolation = errors.New("repository: unique constraint violated")

	// ErrNotFound is returned by updates that matched no row
	ErrNotFound = errors.New("repository: row not found")

	// ErrTransient marks a storage failure that may succeed on retry
	ErrTransient = errors.New("repository: transient storage failure")
)

var dialect = goqu.Dialect("postgres")

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	GetForUpdate(ctx context.Context, id string) (*models.Comment, error)
	UpdateContent(ctx context.Context, comment *models.Comment) error
	Tombstone(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	TransitionStatus(ctx context.Context, id string, from []models.CommentStatus, to models.CommentStatus, meta models.ModerationMeta) (bool, error)
	AdjustCounter(ctx context.Context, id string, counter models.Counter, delta int) (models.CounterUpdate, error)
	CountByAuthor(ctx context.Context, authorID string) (int, error)
	CountReportedByAuthor(ctx context.Context, authorID string) (int, error)
	RecentByAuthor(ctx context.Context, authorID string, since time.Time, limit int) ([]models.PriorComment, error)
	List(ctx context.Context, filter models.CommentFilter) ([]*models.Comment, int, error)
	CountByStatus(ctx context.Context) (map[models.CommentStatus]int, error)
}

// LikeRepository defines the interface for like rows
type LikeRepository interface {
	Insert(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, commentID, userID string) (bool, error)
}

// PostLogRepository defines the append-only record of comment creations
type PostLogRepository interface {
	Record(ctx context.Context, authorID, commentID string, at time.Time) error
	CountSince(ctx context.Context, authorID string, since time.Time) (int, error)
}

// ReportRepository defines the interface for report rows
type ReportRepository interface {
	Insert(ctx context.Context, report *models.Report) error
	CountSince(ctx context.Context, since time.Time) (total int, comments int, err error)
	TopReasons(ctx context.Context, since time.Time, limit int) ([]models.ReasonCount, error)
	DailyCounts(ctx context.Context, since time.Time) ([]models.DailyCount, error)
	StreamSince(ctx context.Context, since time.Time, callback func(*models.Report) error) error
}

// NotificationRepository defines the interface for notification records
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	StreamSince(ctx context.Context, since time.Time, callback func(*models.Notification) error) error
}

// UserRepository defines the read-only user lookups
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListIDsByRole(ctx context.Context, roles ...models.Role) ([]string, error)
}

// ArticleRepository defines the article lookups and comment counter
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*models.Article, error)
	AdjustCommentCount(ctx context.Context, id string, delta int) error
}

// SpamFilterRepository defines the moderator lexicon storage
type SpamFilterRepository interface {
	ListActive(ctx context.Context) ([]*models.SpamFilter, error)
	Upsert(ctx context.Context, f *models.SpamFilter) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment      CommentRepository
	Like         LikeRepository
	Report       ReportRepository
	PostLog      PostLogRepository
	Notification NotificationRepository
	User         UserRepository
	Article      ArticleRepository
	SpamFilter   SpamFilterRepository
}

// NewRepositories binds every repository to db, which may be a pool or a transaction
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Comment:      NewCommentRepo(db),
		Like:         NewLikeRepo(db),
		Report:       NewReportRepo(db),
		PostLog:      NewPostLogRepo(db),
		Notification: NewNotificationRepo(db),
		User:         NewUserRepo(db),
		Article:      NewArticleRepo(db),
		SpamFilter:   NewSpamFilterRepo(db),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
