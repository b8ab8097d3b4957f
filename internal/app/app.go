package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/newspaper/internal/config"
	"github.com/hitoshi/newspaper/internal/database"
	"github.com/hitoshi/newspaper/internal/flash"
	"github.com/hitoshi/newspaper/internal/form"
	"github.com/hitoshi/newspaper/internal/handler"
	"github.com/hitoshi/newspaper/internal/logger"
	"github.com/hitoshi/newspaper/internal/metrics"
	"github.com/hitoshi/newspaper/internal/middleware"
	"github.com/hitoshi/newspaper/internal/post"
	"github.com/hitoshi/newspaper/internal/repository"
	"github.com/hitoshi/newspaper/internal/security"
	"github.com/hitoshi/newspaper/internal/web"
)

// startupPingTimeout は起動時のRedis疎通確認のタイムアウト。
const startupPingTimeout = 5 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("flash_store", cfg.FlashStore),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はWebサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	opts := database.DefaultOptions()
	opts.MaxOpenConns = cfg.DBMaxOpenConns
	db, err := database.Open(cfg.DatabaseURL, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.WaitForConnection(context.Background(), db, cfg.DBConnectAttempts); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. フラッシュメッセージストア
	pingCtx, cancelPing := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancelPing()
	flashStore, closeFlash, err := newFlashStore(pingCtx, cfg)
	if err != nil {
		return err
	}
	defer closeFlash()

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 4. ルーターの構築
	router, stopRouter, err := newRouter(cfg, db, flashStore, registry)
	if err != nil {
		return err
	}
	defer stopRouter()

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// newRouter はリポジトリ・サービス・フォーム・ミドルウェアをワイヤリングしてルーターを返す。
// 返り値の関数はレート制限のバックグラウンド処理を停止する。
func newRouter(cfg *config.Config, db *sql.DB, flashStore flash.Store, registry *prometheus.Registry) (http.Handler, func(), error) {
	// リポジトリの初期化
	postRepo := repository.NewPostgresPostRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	contactRepo := repository.NewPostgresContactRepo(db)
	newsletterRepo := repository.NewPostgresNewsletterRepo(db)

	// ドメインサービスの初期化
	postService := post.NewService(postRepo, commentRepo, time.Now)

	// 描画
	renderer, err := web.NewRenderer(security.NewContentSanitizer())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(cfg.RateLimitForm))

	deps := &handler.RouterDeps{
		Logger:       slog.Default(),
		RateLimiter:  rateLimiter,
		Metrics:      metrics.NewCollector(registry),
		CookieSecure: cfg.CookieSecure,

		Renderer: renderer,
		Flash:    flashStore,

		PostService: postService,

		ContactForm:    form.NewContactForm(contactRepo),
		CommentForm:    form.NewCommentForm(postRepo, commentRepo),
		NewsletterForm: form.NewNewsletterForm(newsletterRepo),

		HealthChecker: db,
		Gatherer:      registry,
	}

	return handler.NewRouter(deps), rateLimiter.Stop, nil
}

// newFlashStore はFLASH_STOREの設定に応じたフラッシュメッセージストアを返す。
// 返り値の関数は外部接続を閉じる。
func newFlashStore(ctx context.Context, cfg *config.Config) (flash.Store, func(), error) {
	cookieOpts := flash.CookieOptions{Secure: cfg.CookieSecure}

	if cfg.FlashStore != config.FlashStoreRedis {
		return flash.NewCookieStore(cfg.SessionSecret, cookieOpts), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established", slog.String("addr", opts.Addr))

	closeClient := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}
	return flash.NewRedisStore(client, flash.DefaultRedisTTL, cookieOpts), closeClient, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
