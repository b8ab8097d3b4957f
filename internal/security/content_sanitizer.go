// Package security は表示用HTMLの安全化を提供する。
//
// 投稿本文は管理者が作成したHTMLだが、テンプレートにそのまま埋め込む前に
// bluemondayの許可リストポリシーで不要なタグと属性を取り除く。
package security

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は投稿本文のHTMLをサニタイズする。
type ContentSanitizer interface {
	// Sanitize は許可リストにないタグと属性を除去したHTMLを返す。
	// script, iframe, styleとon*イベント属性は常に除去される。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string
}

type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer は投稿本文用のContentSanitizerを生成する。
// ポリシーの内容:
//   - 見出し・段落・リスト・引用・コード・表・強調などの本文要素
//   - a: hrefは相対URLとhttp(s)/mailtoのみ、外部リンクにはtarget="_blank"とrel="noopener noreferrer"
//   - img: src, alt, width, height（srcはhttp(s)または相対URL）
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "span", "div",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "b", "i", "u", "s", "sub", "sup",
		"figure", "figcaption",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
	)

	p.AllowStandardURLs()
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowAttrs("width", "height").Matching(regexp.MustCompile(`^[0-9]{1,4}$`)).OnElements("img")

	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("th", "td")

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
