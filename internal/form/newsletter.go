package form

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/repository"
)

// NewsletterInput はニュースレター購読フォームの検証済み入力。
type NewsletterInput struct {
	Email string `form:"email" validate:"required,email,max=254"`
}

// NewsletterForm はニュースレターの購読を受け付ける。
// 同一メールアドレスの重複登録は排除しない。
type NewsletterForm struct {
	repo repository.NewsletterRepository
}

// NewNewsletterForm はNewsletterFormを生成する。
func NewNewsletterForm(repo repository.NewsletterRepository) *NewsletterForm {
	return &NewsletterForm{repo: repo}
}

// Validate は購読フォームの入力を検証する。
func (f *NewsletterForm) Validate(ctx context.Context, values url.Values) (NewsletterInput, FieldErrors) {
	in := NewsletterInput{Email: cleanText(values.Get("email"))}
	errs := FieldErrors{}
	validateStruct(in, errs)
	return in, errs
}

// Save は購読者を保存する。
func (f *NewsletterForm) Save(ctx context.Context, in NewsletterInput) (*model.NewsletterSubscriber, error) {
	sub := &model.NewsletterSubscriber{Email: in.Email}
	if err := f.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("購読者の保存に失敗しました: %w", err)
	}
	return sub, nil
}

var _ Form[NewsletterInput, model.NewsletterSubscriber] = (*NewsletterForm)(nil)
