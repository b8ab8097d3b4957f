package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisStoreCookieName = "flash_id"
	redisKeyPrefix       = "flash:"
	// DefaultRedisTTL は未読メッセージをRedisに保持する期間。
	DefaultRedisTTL = 5 * time.Minute
)

// RedisStore はブラウザごとのIDをCookieに持ち、メッセージ本体をRedisのリストに保持するStore。
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	opts   CookieOptions
}

// NewRedisStore はRedisStoreを生成する。ttlが0以下の場合はDefaultRedisTTLを使う。
func NewRedisStore(client redis.Cmdable, ttl time.Duration, opts CookieOptions) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{client: client, ttl: ttl, opts: opts}
}

// Add はメッセージをRedisのリスト末尾に追加する。IDのCookieがなければ発行する。
func (s *RedisStore) Add(w http.ResponseWriter, r *http.Request, msg Message) error {
	id := s.browserID(r)
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, s.opts.cookie(redisStoreCookieName, id, 0))
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("flashメッセージのエンコードに失敗しました: %w", err)
	}

	ctx := r.Context()
	key := redisKeyPrefix + id
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("flashメッセージの保存に失敗しました: %w", err)
	}
	return nil
}

// Pop はRedisのリストをすべて取り出して削除する。
func (s *RedisStore) Pop(w http.ResponseWriter, r *http.Request) ([]Message, error) {
	id := s.browserID(r)
	if id == "" {
		return []Message{}, nil
	}

	ctx := r.Context()
	key := redisKeyPrefix + id
	var lrange *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("flashメッセージの取得に失敗しました: %w", err)
	}

	return decodeMessages(ctx, lrange.Val()), nil
}

// browserID はCookieのIDを返す。UUIDとして不正な値は無視する。
func (s *RedisStore) browserID(r *http.Request) string {
	c, err := r.Cookie(redisStoreCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

func decodeMessages(ctx context.Context, raw []string) []Message {
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			slog.WarnContext(ctx, "skipping malformed flash message", slog.String("error", err.Error()))
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}

var _ Store = (*RedisStore)(nil)
