// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// フォーム送信結果のラベル値
const (
	ResultSaved   = "saved"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアとハンドラーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordPostView()
	RecordFormSubmission(form, result string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	postViews       prometheus.Counter
	formSubmissions *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newspaper_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newspaper_http_request_duration_seconds",
			Help:    "ルート別のリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		postViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newspaper_post_views_total",
			Help: "投稿詳細の表示回数",
		}),
		formSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newspaper_form_submissions_total",
			Help: "フォーム種別・結果別の送信数",
		}, []string{"form", "result"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.postViews,
		c.formSubmissions,
	)

	return c
}

// RecordHTTPRequest はリクエストの件数と処理時間を記録する。
// routeにはURLではなくルーティングパターンを渡す（ラベルの種類を抑えるため）。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordPostView は投稿詳細の表示を記録する。
func (c *Collector) RecordPostView() {
	c.postViews.Inc()
}

// RecordFormSubmission はフォーム送信の結果を記録する。
func (c *Collector) RecordFormSubmission(form, result string) {
	c.formSubmissions.WithLabelValues(form, result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NopCollector) RecordPostView()                                       {}
func (NopCollector) RecordFormSubmission(string, string)                   {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
