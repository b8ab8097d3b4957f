package model

import "time"

// Comment は投稿に対する読者コメント。
type Comment struct {
	ID        int64
	PostID    int64
	Name      string
	Email     string
	Comment   string
	CreatedAt time.Time
}

// ContactMessage はお問い合わせフォームから送信されたメッセージ。
type ContactMessage struct {
	ID        int64
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}

// NewsletterSubscriber はニュースレター購読者。
// 同一メールアドレスの重複登録はこの層では排除しない。
type NewsletterSubscriber struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}
