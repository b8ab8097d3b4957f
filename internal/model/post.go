// Package model はドメインモデルを定義する。
package model

import "time"

// PostStatus は投稿の公開ステータスを表す。
type PostStatus string

const (
	// PostStatusActive は公開対象の投稿を表す。
	PostStatusActive PostStatus = "active"
	// PostStatusInactive は非公開の投稿を表す。
	PostStatusInactive PostStatus = "in_active"
)

// Category は投稿のカテゴリ。
type Category struct {
	ID   int64
	Name string
}

// Tag は投稿に付与されるタグ。
type Tag struct {
	ID   int64
	Name string
}

// Post は記事（投稿）を表す。
// PublishedAtがnilの投稿は下書き扱いとなる。
type Post struct {
	ID            int64
	Title         string
	Content       string // 管理者が作成したHTML
	FeaturedImage string
	Status        PostStatus
	ViewsCount    int64
	PublishedAt   *time.Time
	CategoryID    *int64
	Category      *Category
	Tags          []Tag
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsVisible は投稿が公開一覧に表示される条件を満たすかを返す。
// status == active かつ published_at が設定されている場合のみtrue。
func (p *Post) IsVisible() bool {
	return p.Status == PostStatusActive && p.PublishedAt != nil
}
