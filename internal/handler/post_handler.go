package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newspaper/internal/metrics"
	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/post"
	"github.com/hitoshi/newspaper/internal/web"
)

// PostHandler は投稿の閲覧系ページのHTTPハンドラー。
type PostHandler struct {
	*pages
	service PostServiceInterface
	metrics metrics.MetricsCollector
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(p *pages, service PostServiceInterface, collector metrics.MetricsCollector) *PostHandler {
	return &PostHandler{
		pages:   p,
		service: service,
		metrics: collector,
	}
}

// Home はトップページを描画する。
// GET /
func (h *PostHandler) Home(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.service.Home(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, web.PageHome, "", web.HomeView{HomeBundle: bundle})
}

// List は公開中の投稿一覧を描画する。
// GET /post-list
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, post.ListFilter{}, "Latest news")
}

// ByCategory はカテゴリで絞り込んだ投稿一覧を描画する。
// GET /post-by-category/{category_id}
func (h *PostHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFilterID(chi.URLParam(r, "category_id"))
	h.renderList(w, r, post.ListFilter{CategoryID: id, NoMatch: !ok}, "Posts by category")
}

// ByTag はタグで絞り込んだ投稿一覧を描画する。
// GET /post-by-tag/{tag_id}
func (h *PostHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFilterID(chi.URLParam(r, "tag_id"))
	h.renderList(w, r, post.ListFilter{TagID: id, NoMatch: !ok}, "Posts by tag")
}

func (h *PostHandler) renderList(w http.ResponseWriter, r *http.Request, filter post.ListFilter, heading string) {
	page, err := h.service.List(r.Context(), filter, r.URL.Query().Get("page"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, web.PageList, heading, web.ListView{
		Heading: heading,
		Page:    page,
		Path:    r.URL.Path,
	})
}

// Detail は投稿詳細を描画する。表示のたびに閲覧数を1加算する。
// GET /post-detail/{id}
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.NotFound(w, r)
		return
	}

	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordPostView()

	h.render(w, r, http.StatusOK, web.PageDetail, detail.Post.Title, web.DetailView{DetailResult: detail})
}

// Search はタイトルまたは本文に検索語を含む投稿を描画する。
// queryパラメータが無い場合は400を返す。
// GET /post-search?query=...&page=...
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if _, ok := params["query"]; !ok {
		h.handleServiceError(w, r, model.MissingParameterError("query"))
		return
	}

	result, err := h.service.Search(r.Context(), params.Get("query"), params.Get("page"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, web.PageList, "Search", web.ListView{
		Heading: "Search results",
		Page:    result.Page,
		Query:   result.Query,
		Search:  true,
		Path:    r.URL.Path,
	})
}

// About は静的な紹介ページを描画する。
// GET /about
func (h *PostHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageAbout, "About", nil)
}
