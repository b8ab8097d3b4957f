package form

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/repository"
)

// ContactInput は問い合わせフォームの検証済み入力。
type ContactInput struct {
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Subject string `form:"subject" validate:"required,max=200"`
	Message string `form:"message" validate:"required"`
}

// ContactForm は問い合わせメッセージを受け付ける。
type ContactForm struct {
	repo repository.ContactRepository
}

// NewContactForm はContactFormを生成する。
func NewContactForm(repo repository.ContactRepository) *ContactForm {
	return &ContactForm{repo: repo}
}

// Validate は問い合わせフォームの入力を検証する。
func (f *ContactForm) Validate(ctx context.Context, values url.Values) (ContactInput, FieldErrors) {
	in := ContactInput{
		Name:    cleanText(values.Get("name")),
		Email:   cleanText(values.Get("email")),
		Subject: cleanText(values.Get("subject")),
		Message: cleanText(values.Get("message")),
	}
	errs := FieldErrors{}
	validateStruct(in, errs)
	return in, errs
}

// Save は問い合わせメッセージを保存する。
func (f *ContactForm) Save(ctx context.Context, in ContactInput) (*model.ContactMessage, error) {
	msg := &model.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	}
	if err := f.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("問い合わせの保存に失敗しました: %w", err)
	}
	return msg, nil
}

var _ Form[ContactInput, model.ContactMessage] = (*ContactForm)(nil)
