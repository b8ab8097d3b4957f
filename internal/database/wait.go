package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialConnectBackoff は接続リトライの初回遅延。
	initialConnectBackoff = 500 * time.Millisecond
	// maxConnectBackoff は接続リトライの最大遅延。
	maxConnectBackoff = 8 * time.Second
	// pingTimeout は1回の疎通確認のタイムアウト。
	pingTimeout = 5 * time.Second
)

// Pinger はDB疎通確認のインターフェース。*sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConnectBackoff は失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回500ms、2倍ずつ増加、最大8秒。
func ConnectBackoff(failures int) time.Duration {
	delay := initialConnectBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxConnectBackoff {
			return maxConnectBackoff
		}
	}
	return delay
}

// WaitForConnection はDBへの疎通が取れるまで最大attempts回試行する。
// attemptsが1未満の場合は1回だけ試行する。
func WaitForConnection(ctx context.Context, db Pinger, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		delay := ConnectBackoff(i)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", i+1),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}
