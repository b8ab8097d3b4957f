// Package handler はHTTPルーティングと各ページのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/newspaper/internal/flash"
	"github.com/hitoshi/newspaper/internal/middleware"
	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/pagination"
	"github.com/hitoshi/newspaper/internal/post"
	"github.com/hitoshi/newspaper/internal/web"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Home はトップページの5区分の投稿をまとめて返す。
	Home(ctx context.Context) (*post.HomeBundle, error)
	// List は公開中の投稿一覧の1ページを返す。
	List(ctx context.Context, filter post.ListFilter, pageParam string) (*pagination.Page[*model.Post], error)
	// Detail は公開中の投稿を閲覧数を加算して返す。
	Detail(ctx context.Context, id int64) (*post.DetailResult, error)
	// DetailWithoutView は閲覧数を加算せずに投稿を返す。公開状態は問わない。
	DetailWithoutView(ctx context.Context, id int64) (*post.DetailResult, error)
	// Search は検索語に一致する公開中の投稿の1ページを返す。
	Search(ctx context.Context, query, pageParam string) (*post.SearchResult, error)
}

// エラーページの文言
const (
	msgBadRequest       = "Bad request."
	msgForbidden        = "CSRF verification failed. Request aborted."
	msgNotFound         = "Page not found."
	msgMethodNotAllowed = "Method not allowed."
	msgServerError      = "Something went wrong. Please try again later."
)

// pages はページ描画とフラッシュメッセージの取り出しをまとめたヘルパー。
type pages struct {
	renderer *web.Renderer
	flash    flash.Store
}

// render はフラッシュメッセージとCSRFトークンを添えてページを描画する。
// inlineはストアを経由せずにこのレスポンスだけに表示するメッセージ。
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, inline ...flash.Message) {
	msgs, err := p.flash.Pop(w, r)
	if err != nil {
		slog.Warn("failed to pop flash messages", slog.String("error", err.Error()))
	}
	msgs = append(msgs, inline...)

	page := web.Page{
		Title:     title,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Messages:  msgs,
		Data:      data,
	}
	if err := p.renderer.Render(w, status, name, page); err != nil {
		slog.Error("failed to render page",
			slog.String("page", name),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError はエラーページを描画する。
func (p *pages) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	p.render(w, r, status, web.PageError, http.StatusText(status), web.ErrorView{
		Status:  status,
		Message: message,
	})
}

// handleServiceError はサービス層から返されたエラーを対応するエラーページに変換する。
func (p *pages) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrPostNotFound), errors.Is(err, pagination.ErrPageOutOfRange):
		p.renderError(w, r, http.StatusNotFound, msgNotFound)
	case errors.Is(err, model.ErrMissingParameter):
		p.renderError(w, r, http.StatusBadRequest, msgBadRequest)
	default:
		slog.Error("internal server error",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		p.renderError(w, r, http.StatusInternalServerError, msgServerError)
	}
}

// NotFound は未定義ルートの404ページを返す。
func (p *pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderError(w, r, http.StatusNotFound, msgNotFound)
}

// MethodNotAllowed は405ページを返す。
func (p *pages) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	p.renderError(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// Forbidden はCSRF検証失敗時の403を返す。XHRにはJSONで応答する。
func (p *pages) Forbidden(w http.ResponseWriter, r *http.Request) {
	if middleware.IsXHR(r) {
		writeJSON(w, http.StatusForbidden, newsletterResponse{Success: false, Message: msgForbidden})
		return
	}
	p.renderError(w, r, http.StatusForbidden, msgForbidden)
}

// InternalError はパニック回復後の500ページを返す。
func (p *pages) InternalError(w http.ResponseWriter, r *http.Request) {
	p.renderError(w, r, http.StatusInternalServerError, msgServerError)
}

// parseID はURLパラメータの投稿IDを解析する。範囲外の値は未検出として扱う。
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, model.ErrPostNotFound
	}
	return id, nil
}

// parseFilterID は絞り込み用のIDを解析する。
// 0やint64に収まらない値も受け付け、どの投稿にも一致しない条件として扱う。
func parseFilterID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode json response", slog.String("error", err.Error()))
	}
}
