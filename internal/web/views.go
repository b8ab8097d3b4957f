package web

import (
	"fmt"
	"net/url"

	"github.com/hitoshi/newspaper/internal/form"
	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/pagination"
	"github.com/hitoshi/newspaper/internal/post"
)

// HomeView はトップページの描画データ。
type HomeView struct {
	*post.HomeBundle
}

// ListView は一覧・絞り込み・検索結果ページの描画データ。
type ListView struct {
	Heading string
	Page    *pagination.Page[*model.Post]
	// Query は検索語。空文字の検索もありうる。
	Query string
	// Search は検索結果ページかどうか。trueのときページリンクにqueryを付ける。
	Search bool
	// Path はページリンクの基準となるパス。
	Path string
}

// PageURL はページ番号nへのリンクを返す。検索結果ページでは検索語を引き継ぐ。
func (v ListView) PageURL(n int) string {
	q := url.Values{}
	if v.Search {
		q.Set("query", v.Query)
	}
	q.Set("page", fmt.Sprint(n))
	return v.Path + "?" + q.Encode()
}

// IsSearch は検索結果ページかを返す。
func (v ListView) IsSearch() bool {
	return v.Search
}

// DetailView は投稿詳細ページの描画データ。
// コメント入力エラー時はValuesとErrorsに入力値とエラーを保持する。
type DetailView struct {
	*post.DetailResult
	Values url.Values
	Errors form.FieldErrors
}

// ContactView はお問い合わせページの描画データ。
type ContactView struct {
	Values url.Values
	Errors form.FieldErrors
}

// ErrorView はエラーページの描画データ。
type ErrorView struct {
	Status  int
	Message string
}
