// Package flash は次のリクエストで1度だけ表示する通知メッセージを提供する。
//
// 保存先はCookie（署名付き）とRedisの2種類で、いずれもStoreインターフェースを満たす。
package flash

import (
	"net/http"
)

// Level は通知メッセージの種別。
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message は1件の通知メッセージ。
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Success は成功メッセージを生成する。
func Success(text string) Message { return Message{Level: LevelSuccess, Text: text} }

// Error はエラーメッセージを生成する。
func Error(text string) Message { return Message{Level: LevelError, Text: text} }

// Store は通知メッセージの保存先。
type Store interface {
	// Add はメッセージを追加する。次回のPopで取り出される。
	Add(w http.ResponseWriter, r *http.Request, msg Message) error
	// Pop は保存済みのメッセージをすべて取り出し、保存先から削除する。
	// メッセージがない場合は空のスライスを返す。
	Pop(w http.ResponseWriter, r *http.Request) ([]Message, error)
}

// CookieOptions は通知メッセージ関連Cookieの属性。
type CookieOptions struct {
	Secure bool
}

func (o CookieOptions) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
