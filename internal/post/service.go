// Package post は投稿の閲覧系ドメインロジックを提供する。
// トップページの構成、一覧、詳細、検索を扱う。
package post

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/pagination"
	"github.com/hitoshi/newspaper/internal/repository"
)

const (
	// ListPageSize は一覧ページの1ページあたりの件数。
	ListPageSize = 1
	// SearchPageSize は検索結果の1ページあたりの件数。
	SearchPageSize = 3
	// FeaturedLimit はトップページの注目記事（先頭記事を除く）の件数。
	FeaturedLimit = 3
	// RecentLimit はトップページの新着記事の件数。
	RecentLimit = 7
	// WeeklyTopLimit はトップページの週間人気記事の件数。
	WeeklyTopLimit = 7
	// WeeklyWindow は週間人気記事の対象期間。
	WeeklyWindow = 7 * 24 * time.Hour
)

// Clock は現在時刻を返す関数。テストで差し替える。
type Clock func() time.Time

// HomeBundle はトップページに表示する投稿のまとまり。
type HomeBundle struct {
	FeaturedPost   *model.Post
	FeaturedPosts  []*model.Post
	RecentPosts    []*model.Post
	WeeklyTopPosts []*model.Post
}

// ListFilter は一覧の絞り込み条件。ゼロ値は条件なし。
type ListFilter struct {
	CategoryID int64
	TagID      int64
	// NoMatch は存在しえないIDで絞り込んだことを示す。結果は常に空ページ。
	NoMatch bool
}

// DetailResult は投稿詳細ページの表示内容。
type DetailResult struct {
	Post         *model.Post
	PreviousPost *model.Post
	NextPost     *model.Post
	Comments     []*model.Comment
}

// SearchResult は検索結果のページと検索語。
type SearchResult struct {
	Page  *pagination.Page[*model.Post]
	Query string
}

// Service は投稿閲覧のサービス層。
type Service struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	now         Clock
}

// NewService はServiceの新しいインスタンスを生成する。clockがnilの場合はtime.Nowを使う。
func NewService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		now:         clock,
	}
}

// Home はトップページ用の投稿を取得する。
// 注目記事は既定の並び順の先頭1件とそれに続く3件で、互いに重複しない。
func (s *Service) Home(ctx context.Context) (*HomeBundle, error) {
	featured, err := s.postRepo.ListVisible(ctx, repository.PostQuery{Order: repository.OrderDefault, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("注目記事の取得に失敗しました: %w", err)
	}

	featuredPosts, err := s.postRepo.ListVisible(ctx, repository.PostQuery{
		Order:  repository.OrderDefault,
		Offset: 1,
		Limit:  FeaturedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("注目記事一覧の取得に失敗しました: %w", err)
	}

	recent, err := s.postRepo.ListVisible(ctx, repository.PostQuery{
		Order: repository.OrderPublishedDesc,
		Limit: RecentLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("新着記事の取得に失敗しました: %w", err)
	}

	since := s.now().Add(-WeeklyWindow)
	weekly, err := s.postRepo.ListVisible(ctx, repository.PostQuery{
		PublishedSince: &since,
		Order:          repository.OrderPublishedDescViewsDesc,
		Limit:          WeeklyTopLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("週間人気記事の取得に失敗しました: %w", err)
	}

	bundle := &HomeBundle{
		FeaturedPosts:  nonNil(featuredPosts),
		RecentPosts:    nonNil(recent),
		WeeklyTopPosts: nonNil(weekly),
	}
	if len(featured) > 0 {
		bundle.FeaturedPost = featured[0]
	}
	return bundle, nil
}

// List は公開中の投稿をpublished_at降順でページ分割して返す。
// pageParamが整数でない場合は1ページ目、範囲外の場合はpagination.ErrPageOutOfRangeを返す。
func (s *Service) List(ctx context.Context, filter ListFilter, pageParam string) (*pagination.Page[*model.Post], error) {
	if filter.NoMatch {
		p := pagination.New(0, ListPageSize)
		number, err := p.Resolve(pageParam)
		if err != nil {
			return nil, err
		}
		return pagination.NewPage[*model.Post](p, number, nil), nil
	}

	q := repository.PostQuery{
		CategoryID: filter.CategoryID,
		TagID:      filter.TagID,
		Order:      repository.OrderPublishedDesc,
	}
	return s.paginate(ctx, q, ListPageSize, pageParam)
}

// Detail は公開中の投稿を取得し、閲覧数を1加算する。
// 投稿が存在しないか非公開の場合はmodel.ErrPostNotFoundを返す。
func (s *Service) Detail(ctx context.Context, id int64) (*DetailResult, error) {
	post, err := s.postRepo.FindVisibleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.PostNotFoundError(id)
	}

	views, err := s.postRepo.IncrementViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("閲覧数の加算に失敗しました: %w", err)
	}
	post.ViewsCount = views

	return s.assembleDetail(ctx, post)
}

// DetailWithoutView は閲覧数を加算せずに詳細ページの表示内容を組み立てる。
// コメント投稿の入力エラー時に詳細ページを再表示するために使う。
func (s *Service) DetailWithoutView(ctx context.Context, id int64) (*DetailResult, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.PostNotFoundError(id)
	}
	return s.assembleDetail(ctx, post)
}

func (s *Service) assembleDetail(ctx context.Context, post *model.Post) (*DetailResult, error) {
	prev, err := s.postRepo.FindPreviousVisible(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("前の投稿の取得に失敗しました: %w", err)
	}
	next, err := s.postRepo.FindNextVisible(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("次の投稿の取得に失敗しました: %w", err)
	}

	tags, err := s.postRepo.ListTagsByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	post.Tags = tags

	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}

	return &DetailResult{
		Post:         post,
		PreviousPost: prev,
		NextPost:     next,
		Comments:     nonNil(comments),
	}, nil
}

// Search はタイトルまたは本文にqueryを含む公開中の投稿を検索する。
// 大文字小文字は区別しない。
func (s *Service) Search(ctx context.Context, query, pageParam string) (*SearchResult, error) {
	page, err := s.paginate(ctx, repository.PostQuery{
		Search: query,
		Order:  repository.OrderPublishedDesc,
	}, SearchPageSize, pageParam)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Page: page, Query: query}, nil
}

func (s *Service) paginate(ctx context.Context, q repository.PostQuery, perPage int, pageParam string) (*pagination.Page[*model.Post], error) {
	count, err := s.postRepo.CountVisible(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("投稿数の取得に失敗しました: %w", err)
	}

	p := pagination.New(count, perPage)
	number, err := p.Resolve(pageParam)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return pagination.NewPage[*model.Post](p, number, nil), nil
	}

	q.Offset = p.Offset(number)
	q.Limit = perPage
	posts, err := s.postRepo.ListVisible(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return pagination.NewPage(p, number, posts), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
