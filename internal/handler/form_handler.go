package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/newspaper/internal/flash"
	"github.com/hitoshi/newspaper/internal/form"
	"github.com/hitoshi/newspaper/internal/metrics"
	"github.com/hitoshi/newspaper/internal/middleware"
	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/web"
)

// フォーム種別（メトリクスのラベル）
const (
	formContact    = "contact"
	formComment    = "comment"
	formNewsletter = "newsletter"
)

// お問い合わせのフラッシュメッセージ
const (
	msgContactSaved   = "Your message has been submitted. We will contact you soon."
	msgContactInvalid = "Cannot submit your message. Please check your form and try again."
)

// ニュースレター登録のレスポンスメッセージ
const (
	msgNewsletterSaved   = "Successfully subscribed to the newsletter."
	msgNewsletterInvalid = "Cannot subscribe to the newsletter."
	msgNewsletterNotAJAX = "Cannot process. Must be an AJAX XMLHttpRequest"
)

// newsletterResponse はニュースレター登録のJSONレスポンス。
type newsletterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FormHandler はお問い合わせ・コメント・ニュースレターの投稿を受け付けるHTTPハンドラー。
type FormHandler struct {
	*pages
	posts      PostServiceInterface
	contact    form.Form[form.ContactInput, model.ContactMessage]
	comment    form.Form[form.CommentInput, model.Comment]
	newsletter form.Form[form.NewsletterInput, model.NewsletterSubscriber]
	metrics    metrics.MetricsCollector
}

// FormHandlerDeps はFormHandlerの依存関係。
type FormHandlerDeps struct {
	Posts      PostServiceInterface
	Contact    form.Form[form.ContactInput, model.ContactMessage]
	Comment    form.Form[form.CommentInput, model.Comment]
	Newsletter form.Form[form.NewsletterInput, model.NewsletterSubscriber]
	Metrics    metrics.MetricsCollector
}

// NewFormHandler はFormHandlerを生成する。
func NewFormHandler(p *pages, deps FormHandlerDeps) *FormHandler {
	return &FormHandler{
		pages:      p,
		posts:      deps.Posts,
		contact:    deps.Contact,
		comment:    deps.Comment,
		newsletter: deps.Newsletter,
		metrics:    deps.Metrics,
	}
}

// ContactPage は空のお問い合わせフォームを描画する。
// GET /contact
func (h *FormHandler) ContactPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageContact, "Contact", web.ContactView{})
}

// SubmitContact はお問い合わせを受け付ける。
// 成功時はフラッシュメッセージを積んで/contactへリダイレクトし、
// 入力エラー時は何も保存せずにエラー付きでフォームを再描画する。
// POST /contact
func (h *FormHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, msgBadRequest)
		return
	}

	in, errs := h.contact.Validate(r.Context(), r.PostForm)
	if !errs.Valid() {
		h.metrics.RecordFormSubmission(formContact, metrics.ResultInvalid)
		h.render(w, r, http.StatusOK, web.PageContact, "Contact",
			web.ContactView{Values: r.PostForm, Errors: errs},
			flash.Error(msgContactInvalid),
		)
		return
	}

	if _, err := h.contact.Save(r.Context(), in); err != nil {
		h.metrics.RecordFormSubmission(formContact, metrics.ResultError)
		h.handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordFormSubmission(formContact, metrics.ResultSaved)

	if err := h.flash.Add(w, r, flash.Success(msgContactSaved)); err != nil {
		slog.Warn("failed to add flash message", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

// SubmitComment は投稿へのコメントを受け付ける。
// postフィールドが無い場合は400を返す。
// 入力エラー時はpostの値で投稿を引き直し、エラー付きで詳細ページを再描画する。
// 投稿が存在しない場合は404、投稿の存在確認に失敗した場合は500を返す。
// POST /comment
func (h *FormHandler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, msgBadRequest)
		return
	}
	if _, ok := r.PostForm["post"]; !ok {
		h.handleServiceError(w, r, model.MissingParameterError("post"))
		return
	}

	in, errs := h.comment.Validate(r.Context(), r.PostForm)
	if errs.Unavailable() {
		h.metrics.RecordFormSubmission(formComment, metrics.ResultError)
		h.InternalError(w, r)
		return
	}
	if errs.Valid() {
		if _, err := h.comment.Save(r.Context(), in); err != nil {
			h.metrics.RecordFormSubmission(formComment, metrics.ResultError)
			h.handleServiceError(w, r, err)
			return
		}
		h.metrics.RecordFormSubmission(formComment, metrics.ResultSaved)
		http.Redirect(w, r, fmt.Sprintf("/post-detail/%d", in.PostID), http.StatusSeeOther)
		return
	}
	h.metrics.RecordFormSubmission(formComment, metrics.ResultInvalid)

	id, err := parseID(strings.TrimSpace(r.PostForm.Get("post")))
	if err != nil {
		h.NotFound(w, r)
		return
	}
	detail, err := h.posts.DetailWithoutView(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, web.PageDetail, detail.Post.Title, web.DetailView{
		DetailResult: detail,
		Values:       r.PostForm,
		Errors:       errs,
	})
}

// SubscribeNewsletter はAJAXからのニュースレター登録を受け付ける。
// POST /newsletter
func (h *FormHandler) SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsXHR(r) {
		writeJSON(w, http.StatusBadRequest, newsletterResponse{Success: false, Message: msgNewsletterNotAJAX})
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, newsletterResponse{Success: false, Message: msgNewsletterInvalid})
		return
	}

	in, errs := h.newsletter.Validate(r.Context(), r.PostForm)
	if !errs.Valid() {
		h.metrics.RecordFormSubmission(formNewsletter, metrics.ResultInvalid)
		writeJSON(w, http.StatusBadRequest, newsletterResponse{Success: false, Message: msgNewsletterInvalid})
		return
	}

	if _, err := h.newsletter.Save(r.Context(), in); err != nil {
		h.metrics.RecordFormSubmission(formNewsletter, metrics.ResultError)
		slog.Error("failed to save newsletter subscriber",
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, newsletterResponse{Success: false, Message: msgServerError})
		return
	}
	h.metrics.RecordFormSubmission(formNewsletter, metrics.ResultSaved)

	writeJSON(w, http.StatusCreated, newsletterResponse{Success: true, Message: msgNewsletterSaved})
}
