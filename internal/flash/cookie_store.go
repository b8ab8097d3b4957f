package flash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

const cookieStoreName = "flash"

// maxCookieMessages はCookieに保持するメッセージ数の上限。超過分は古いものから捨てる。
const maxCookieMessages = 10

var errInvalidSignature = errors.New("flash cookie signature mismatch")

// CookieStore はHMAC署名付きCookieにメッセージを保持するStore。
type CookieStore struct {
	secret []byte
	opts   CookieOptions
}

// NewCookieStore はCookieStoreを生成する。secretは署名鍵として使う。
func NewCookieStore(secret string, opts CookieOptions) *CookieStore {
	return &CookieStore{secret: []byte(secret), opts: opts}
}

// Add はメッセージを追加してCookieを書き換える。
func (s *CookieStore) Add(w http.ResponseWriter, r *http.Request, msg Message) error {
	msgs, err := s.read(r)
	if err != nil {
		slog.Warn("discarding invalid flash cookie", slog.String("error", err.Error()))
		msgs = nil
	}
	msgs = append(msgs, msg)
	if len(msgs) > maxCookieMessages {
		msgs = msgs[len(msgs)-maxCookieMessages:]
	}

	value, err := s.encode(msgs)
	if err != nil {
		return fmt.Errorf("flashメッセージのエンコードに失敗しました: %w", err)
	}
	http.SetCookie(w, s.opts.cookie(cookieStoreName, value, 0))
	return nil
}

// Pop はCookieからメッセージを取り出し、Cookieを削除する。
// 署名が一致しないCookieは破棄して空を返す。
func (s *CookieStore) Pop(w http.ResponseWriter, r *http.Request) ([]Message, error) {
	c, err := r.Cookie(cookieStoreName)
	if err != nil || c.Value == "" {
		return []Message{}, nil
	}
	http.SetCookie(w, s.opts.cookie(cookieStoreName, "", -1))

	msgs, err := s.decode(c.Value)
	if err != nil {
		slog.Warn("discarding invalid flash cookie", slog.String("error", err.Error()))
		return []Message{}, nil
	}
	return msgs, nil
}

func (s *CookieStore) read(r *http.Request) ([]Message, error) {
	c, err := r.Cookie(cookieStoreName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	return s.decode(c.Value)
}

// encode は payload.signature 形式の値を生成する。いずれもbase64url（パディングなし）。
func (s *CookieStore) encode(msgs []Message) (string, error) {
	data, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(data)
	return payload + "." + base64.RawURLEncoding.EncodeToString(s.sign(payload)), nil
}

func (s *CookieStore) decode(value string) ([]Message, error) {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok {
		return nil, errInvalidSignature
	}
	gotSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(gotSig, s.sign(payload)) {
		return nil, errInvalidSignature
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("flash cookie payload: %w", err)
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("flash cookie payload: %w", err)
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

func (s *CookieStore) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

var _ Store = (*CookieStore)(nil)
