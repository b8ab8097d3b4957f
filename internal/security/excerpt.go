package security

import (
	"strings"

	"golang.org/x/net/html"
)

// ExcerptEllipsis は抜粋を切り詰めたときに末尾へ付ける文字列。
const ExcerptEllipsis = " …"

// skipContentTags はテキストとして扱わない要素。
var skipContentTags = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"title":  true,
}

// blockTags は前後に区切りを入れる要素。
var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "td": true, "th": true, "figcaption": true, "hr": true,
}

// PlainText はHTMLからテキストのみを取り出し、連続する空白を1つにまとめて返す。
// 文字参照はデコードされる。
func PlainText(rawHTML string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF以外のエラーもそこまでのテキストを返す
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipContentTags[tag] {
				skip++
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipContentTags[tag] && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}

// Excerpt はHTMLのテキストを先頭からmaxWords語で切り詰める。
// 語数がmaxWords以下の場合はそのまま返す。maxWordsが0以下の場合は空文字を返す。
func Excerpt(rawHTML string, maxWords int) string {
	if maxWords <= 0 {
		return ""
	}
	words := strings.Fields(PlainText(rawHTML))
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + ExcerptEllipsis
}
