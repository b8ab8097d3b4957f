// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/newspaper/internal/model"
)

// PostOrder は投稿一覧の並び順を表す。
type PostOrder int

const (
	// OrderDefault はモデルの既定の並び順（created_at降順、id降順）。
	OrderDefault PostOrder = iota
	// OrderPublishedDesc はpublished_at降順。
	OrderPublishedDesc
	// OrderPublishedDescViewsDesc はpublished_at降順、同時刻の場合はviews_count降順。
	OrderPublishedDescViewsDesc
)

// PostQuery は公開中の投稿を絞り込む条件。
// ゼロ値のフィールドは条件に含めない。
type PostQuery struct {
	CategoryID     int64
	TagID          int64
	Search         string     // タイトルまたは本文の部分一致（大文字小文字を区別しない）
	PublishedSince *time.Time // published_at >= PublishedSince
	Order          PostOrder
	Offset         int
	Limit          int // 0の場合は無制限
}

// PostRepository は投稿データの永続化インターフェース。
// List系・Count系のメソッドは常に公開中（status='active' かつ published_at IS NOT NULL）の投稿のみを対象とする。
type PostRepository interface {
	// ListVisible は条件に一致する公開中の投稿を取得する。
	ListVisible(ctx context.Context, q PostQuery) ([]*model.Post, error)

	// CountVisible は条件に一致する公開中の投稿数を返す。OrderとOffset/Limitは無視される。
	CountVisible(ctx context.Context, q PostQuery) (int, error)

	// FindVisibleByID は公開中の投稿をIDで取得する。見つからない場合はnilを返す。
	FindVisibleByID(ctx context.Context, id int64) (*model.Post, error)

	// FindByID は公開状態に関係なく投稿をIDで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// FindPreviousVisible はidより小さい公開中の投稿のうちidが最大のものを返す。存在しない場合はnil。
	FindPreviousVisible(ctx context.Context, id int64) (*model.Post, error)

	// FindNextVisible はidより大きい公開中の投稿のうちidが最小のものを返す。存在しない場合はnil。
	FindNextVisible(ctx context.Context, id int64) (*model.Post, error)

	// IncrementViews はviews_countを1加算し、加算後の値を返す。
	// 加算はストア側で原子的に行い、重複排除はしない。
	IncrementViews(ctx context.Context, id int64) (int64, error)

	// ListTagsByPost は投稿に付与されたタグをID昇順で返す。
	ListTagsByPost(ctx context.Context, postID int64) ([]model.Tag, error)

	// Exists は公開状態に関係なく投稿が存在するかを返す。
	Exists(ctx context.Context, id int64) (bool, error)
}

// CommentRepository はコメントの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成し、採番されたIDと作成日時をcommentに設定する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByPost は投稿のコメントを作成日時の昇順で返す。
	ListByPost(ctx context.Context, postID int64) ([]*model.Comment, error)
}

// ContactRepository はお問い合わせメッセージの永続化インターフェース。
type ContactRepository interface {
	// Create はメッセージを作成し、採番されたIDと作成日時をmsgに設定する。
	Create(ctx context.Context, msg *model.ContactMessage) error
}

// NewsletterRepository はニュースレター購読者の永続化インターフェース。
type NewsletterRepository interface {
	// Create は購読者を作成し、採番されたIDと作成日時をsubに設定する。
	Create(ctx context.Context, sub *model.NewsletterSubscriber) error
}

// HealthChecker はDB疎通確認のためのインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}
