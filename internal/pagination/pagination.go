// Package pagination はページ番号ベースのページネーションを提供する。
//
// 1始まりのページ番号を扱い、件数0のときも1ページ目（空ページ）を有効とする。
// ページ番号として解釈できない値は1ページ目にフォールバックし、
// 範囲外の整数（intに収まらない値を含む）はErrPageOutOfRangeを返す。
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

// ErrPageOutOfRange は要求されたページ番号が存在しない場合のエラー。
var ErrPageOutOfRange = errors.New("page number out of range")

// Paginator は総件数とページサイズからページ数を算出する。
type Paginator struct {
	Count   int
	PerPage int
}

// New はPaginatorを生成する。perPageが1未満の場合は1として扱う。
func New(count, perPage int) Paginator {
	if perPage < 1 {
		perPage = 1
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages は総ページ数を返す。件数0でも1を返す。
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	return (p.Count + p.PerPage - 1) / p.PerPage
}

// Resolve はクエリパラメータのページ値を検証済みのページ番号に変換する。
//   - 空文字・整数でない値 → 1
//   - 1未満・総ページ数超過・intに収まらない整数 → ErrPageOutOfRange
func (p Paginator) Resolve(raw string) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) {
		return 0, ErrPageOutOfRange
	}
	if err != nil {
		return 1, nil
	}

	if number < 1 || number > p.NumPages() {
		return 0, ErrPageOutOfRange
	}
	return number, nil
}

// Offset はページ番号に対応するSQLのOFFSET値を返す。
func (p Paginator) Offset(number int) int {
	return (number - 1) * p.PerPage
}

// Page は1ページ分の結果とナビゲーション情報を保持する。
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int
	PerPage  int
}

// NewPage はPaginatorとページ番号、取得済みの要素からPageを生成する。
func NewPage[T any](p Paginator, number int, items []T) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:    items,
		Number:   number,
		NumPages: p.NumPages(),
		Count:    p.Count,
		PerPage:  p.PerPage,
	}
}

// HasNext は次のページが存在するかを返す。
func (pg *Page[T]) HasNext() bool { return pg.Number < pg.NumPages }

// HasPrevious は前のページが存在するかを返す。
func (pg *Page[T]) HasPrevious() bool { return pg.Number > 1 }

// HasOtherPages は前後いずれかのページが存在するかを返す。
func (pg *Page[T]) HasOtherPages() bool { return pg.HasNext() || pg.HasPrevious() }

// NextNumber は次のページ番号を返す。
func (pg *Page[T]) NextNumber() int { return pg.Number + 1 }

// PreviousNumber は前のページ番号を返す。
func (pg *Page[T]) PreviousNumber() int { return pg.Number - 1 }

// StartIndex はページ先頭要素の1始まりの通し番号を返す。件数0の場合は0。
func (pg *Page[T]) StartIndex() int {
	if pg.Count == 0 {
		return 0
	}
	return (pg.Number-1)*pg.PerPage + 1
}

// EndIndex はページ末尾要素の1始まりの通し番号を返す。
func (pg *Page[T]) EndIndex() int {
	if pg.Number == pg.NumPages {
		return pg.Count
	}
	return pg.Number * pg.PerPage
}

// PageRange はテンプレートでページリンクを描画するための1..NumPagesを返す。
func (pg *Page[T]) PageRange() []int {
	r := make([]int, pg.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
