// Package web はHTMLページの描画と静的ファイルの配信を提供する。
//
// テンプレートと静的ファイルはバイナリに埋め込まれる。各ページは
// templates/base.html と templates/partials/*.html に自身のテンプレートを
// 重ねて起動時に一度だけ解析する。
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/hitoshi/newspaper/internal/flash"
	"github.com/hitoshi/newspaper/internal/security"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// ページテンプレート名
const (
	PageHome    = "home"
	PageAbout   = "about"
	PageList    = "list"
	PageDetail  = "detail"
	PageContact = "contact"
	PageError   = "error"
)

var pageNames = []string{PageHome, PageAbout, PageList, PageDetail, PageContact, PageError}

// ExcerptWords は一覧カードに表示する抜粋の語数。
const ExcerptWords = 40

// Page は全ページ共通の描画データ。ページ固有のデータはDataに格納する。
type Page struct {
	Title     string
	CSRFToken string
	Messages  []flash.Message
	Data      any
}

// Renderer は埋め込みテンプレートからHTMLページを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は全ページのテンプレートを解析してRendererを生成する。
// 本文HTMLはsanitizerで安全化してから埋め込む。
func NewRenderer(sanitizer security.ContentSanitizer) (*Renderer, error) {
	funcs := template.FuncMap{
		"content": func(raw string) template.HTML {
			return template.HTML(sanitizer.Sanitize(raw))
		},
		"excerpt": func(raw string) string {
			return security.Excerpt(raw, ExcerptWords)
		},
		"date": formatDate,
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS,
			"templates/base.html",
			"templates/partials/*.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("テンプレート %s の解析に失敗しました: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render はページを描画してstatusで書き込む。
// 描画はバッファ上で行い、失敗した場合はレスポンスに何も書き込まずエラーを返す。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page template: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", page); err != nil {
		return fmt.Errorf("テンプレート %s の描画に失敗しました: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler は埋め込み静的ファイルを配信するハンドラーを返す。
// prefixはルーティング上のパス接頭辞（例: "/static/"）。
func StaticHandler(prefix string) http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("embedded static filesystem: " + err.Error())
	}
	files := http.StripPrefix(prefix, http.FileServer(http.FS(sub)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

// formatDate は日時を "Jan 2, 2006" 形式で返す。nilやゼロ値は空文字。
func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	default:
		return ""
	}
}
