package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/newspaper/internal/flash"
	"github.com/hitoshi/newspaper/internal/form"
	"github.com/hitoshi/newspaper/internal/metrics"
	"github.com/hitoshi/newspaper/internal/middleware"
	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/repository"
	"github.com/hitoshi/newspaper/internal/web"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger       *slog.Logger
	RateLimiter  *middleware.RateLimiter
	Metrics      metrics.MetricsCollector
	CookieSecure bool

	// 描画
	Renderer *web.Renderer
	Flash    flash.Store

	// 投稿
	PostService PostServiceInterface

	// フォーム
	ContactForm    form.Form[form.ContactInput, model.ContactMessage]
	CommentForm    form.Form[form.CommentInput, model.Comment]
	NewsletterForm form.Form[form.NewsletterInput, model.NewsletterSubscriber]

	// 運用
	HealthChecker repository.HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Recovery → SecurityHeaders → StripSlashes → Metrics → CSRF
//
// /health、/metrics、/static/* はCSRFミドルウェアの外に配置する。
// フォーム送信（POST）にはIP単位のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	p := &pages{renderer: deps.Renderer, flash: deps.Flash}
	postHandler := NewPostHandler(p, deps.PostService, collector)
	formHandler := NewFormHandler(p, FormHandlerDeps{
		Posts:      deps.PostService,
		Contact:    deps.ContactForm,
		Comment:    deps.CommentForm,
		Newsletter: deps.NewsletterForm,
		Metrics:    collector,
	})
	healthHandler := NewHealthHandler(deps.HealthChecker)

	r := chi.NewRouter()
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(http.HandlerFunc(p.InternalError)))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(chimw.StripSlashes)
	r.Use(middleware.NewMetricsMiddleware(collector))

	r.NotFound(p.NotFound)
	r.MethodNotAllowed(p.MethodNotAllowed)

	// --- 運用・静的ファイル ---
	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Handle("/static/*", web.StaticHandler("/static/"))

	// --- ページ ---
	// ミドルウェアスタック: CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
			CookieSecure: deps.CookieSecure,
			OnFailure:    http.HandlerFunc(p.Forbidden),
		}))

		r.Get("/", postHandler.Home)
		r.Get("/about", postHandler.About)
		r.Get("/post-list", postHandler.List)
		r.Get("/post-by-category/{category_id:[0-9]+}", postHandler.ByCategory)
		r.Get("/post-by-tag/{tag_id:[0-9]+}", postHandler.ByTag)
		r.Get("/post-detail/{id:[0-9]+}", postHandler.Detail)
		r.Get("/post-search", postHandler.Search)

		r.Get("/contact", formHandler.ContactPage)

		// フォーム送信（レート制限を追加）
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.FormMiddleware())

			r.Post("/contact", formHandler.SubmitContact)
			r.Post("/comment", formHandler.SubmitComment)
			r.Post("/newsletter", formHandler.SubscribeNewsletter)
		})
	})

	return r
}
