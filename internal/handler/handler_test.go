package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/newspaper/internal/flash"
	"github.com/hitoshi/newspaper/internal/form"
	"github.com/hitoshi/newspaper/internal/middleware"
	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/pagination"
	"github.com/hitoshi/newspaper/internal/post"
	"github.com/hitoshi/newspaper/internal/security"
	"github.com/hitoshi/newspaper/internal/web"
)

// --- モック定義 ---

// mockPostService はPostServiceInterfaceのモック実装。
type mockPostService struct {
	homeFn              func(ctx context.Context) (*post.HomeBundle, error)
	listFn              func(ctx context.Context, filter post.ListFilter, pageParam string) (*pagination.Page[*model.Post], error)
	detailFn            func(ctx context.Context, id int64) (*post.DetailResult, error)
	detailWithoutViewFn func(ctx context.Context, id int64) (*post.DetailResult, error)
	searchFn            func(ctx context.Context, query, pageParam string) (*post.SearchResult, error)
}

func (m *mockPostService) Home(ctx context.Context) (*post.HomeBundle, error) {
	if m.homeFn != nil {
		return m.homeFn(ctx)
	}
	return &post.HomeBundle{}, nil
}

func (m *mockPostService) List(ctx context.Context, filter post.ListFilter, pageParam string) (*pagination.Page[*model.Post], error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, pageParam)
	}
	return emptyPage(), nil
}

func (m *mockPostService) Detail(ctx context.Context, id int64) (*post.DetailResult, error) {
	if m.detailFn != nil {
		return m.detailFn(ctx, id)
	}
	return nil, model.PostNotFoundError(id)
}

func (m *mockPostService) DetailWithoutView(ctx context.Context, id int64) (*post.DetailResult, error) {
	if m.detailWithoutViewFn != nil {
		return m.detailWithoutViewFn(ctx, id)
	}
	return nil, model.PostNotFoundError(id)
}

func (m *mockPostService) Search(ctx context.Context, query, pageParam string) (*post.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, pageParam)
	}
	return &post.SearchResult{Page: emptyPage(), Query: query}, nil
}

// mockForm はform.Formのモック実装。
type mockForm[T any, E any] struct {
	validateFn func(ctx context.Context, values url.Values) (T, form.FieldErrors)
	saveFn     func(ctx context.Context, data T) (*E, error)
	saved      []T
}

func (m *mockForm[T, E]) Validate(ctx context.Context, values url.Values) (T, form.FieldErrors) {
	if m.validateFn != nil {
		return m.validateFn(ctx, values)
	}
	var zero T
	return zero, form.FieldErrors{}
}

func (m *mockForm[T, E]) Save(ctx context.Context, data T) (*E, error) {
	m.saved = append(m.saved, data)
	if m.saveFn != nil {
		return m.saveFn(ctx, data)
	}
	return new(E), nil
}

// invalid は指定フィールドにエラーを返すValidateを設定する。
func (m *mockForm[T, E]) invalid(field, msg string) *mockForm[T, E] {
	m.validateFn = func(ctx context.Context, values url.Values) (T, form.FieldErrors) {
		var zero T
		errs := form.FieldErrors{}
		errs.Add(field, msg)
		return zero, errs
	}
	return m
}

// mockCollector はmetrics.MetricsCollectorのモック実装。
type mockCollector struct {
	mu          sync.Mutex
	postViews   int
	submissions map[string]int
}

func newMockCollector() *mockCollector {
	return &mockCollector{submissions: map[string]int{}}
}

func (m *mockCollector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {}

func (m *mockCollector) RecordPostView() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postViews++
}

func (m *mockCollector) RecordFormSubmission(form, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[form+"/"+result]++
}

// mockHealthChecker はrepository.HealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- テストヘルパー ---

const testCSRFToken = "test-csrf-token"

type testDeps struct {
	posts      *mockPostService
	contact    *mockForm[form.ContactInput, model.ContactMessage]
	comment    *mockForm[form.CommentInput, model.Comment]
	newsletter *mockForm[form.NewsletterInput, model.NewsletterSubscriber]
	collector  *mockCollector
	health     *mockHealthChecker
	limiter    middleware.RateLimiterConfig
}

func newTestDeps() *testDeps {
	return &testDeps{
		posts:      &mockPostService{},
		contact:    &mockForm[form.ContactInput, model.ContactMessage]{},
		comment:    &mockForm[form.CommentInput, model.Comment]{},
		newsletter: &mockForm[form.NewsletterInput, model.NewsletterSubscriber]{},
		collector:  newMockCollector(),
		health:     &mockHealthChecker{},
		limiter:    middleware.PerMinuteRateLimiterConfig(100),
	}
}

// router はテスト用の依存関係でNewRouterを構成する。
func (d *testDeps) router(t *testing.T) http.Handler {
	t.Helper()
	renderer, err := web.NewRenderer(security.NewContentSanitizer())
	if err != nil {
		t.Fatalf("NewRenderer returned error: %v", err)
	}
	limiter := middleware.NewRateLimiter(d.limiter)
	t.Cleanup(limiter.Stop)

	return NewRouter(&RouterDeps{
		RateLimiter:    limiter,
		Metrics:        d.collector,
		Renderer:       renderer,
		Flash:          flash.NewCookieStore("test-secret", flash.CookieOptions{}),
		PostService:    d.posts,
		ContactForm:    d.contact,
		CommentForm:    d.comment,
		NewsletterForm: d.newsletter,
		HealthChecker:  d.health,
	})
}

// serve はリクエストを処理してレコーダーを返す。
func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// get はGETリクエストを送る。
func get(h http.Handler, target string) *httptest.ResponseRecorder {
	return serve(h, httptest.NewRequest(http.MethodGet, target, nil))
}

// newFormPost はCSRFトークン付きのフォームPOSTリクエストを生成する。
func newFormPost(target string, values url.Values) *http.Request {
	values.Set(middleware.CSRFFormField, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	return req
}

func emptyPage() *pagination.Page[*model.Post] {
	return pagination.NewPage[*model.Post](pagination.New(0, 1), 1, nil)
}

func publishedPost(id int64, title string) *model.Post {
	published := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	return &model.Post{
		ID:          id,
		Title:       title,
		Content:     "<p>" + title + " body</p>",
		Status:      model.PostStatusActive,
		PublishedAt: &published,
	}
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, want, w.Body.String())
	}
}

func assertBodyContains(t *testing.T, w *httptest.ResponseRecorder, wants ...string) {
	t.Helper()
	body := w.Body.String()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body should contain %q\nbody: %s", want, body)
		}
	}
}

// newGetWithCookies は前のレスポンスで設定されたCookieを引き継いだGETリクエストを生成する。
func newGetWithCookies(target string, prev *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range prev.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}
