// Package form は問い合わせ・コメント・ニュースレター購読の入力受付を提供する。
//
// 各フォームは Form インターフェースを満たし、Validate で入力を検証して
// 型付きの値に変換し、Save で永続化する。
package form

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Form は入力の検証と保存を行うフォームの共通インターフェース。
// Tは検証済みの入力値、Eは保存されたエンティティの型。
type Form[T any, E any] interface {
	// Validate はフォーム値を検証する。エラーがない場合FieldErrorsは空。
	Validate(ctx context.Context, values url.Values) (T, FieldErrors)
	// Save は検証済みの入力値を永続化する。保存失敗のエラーはそのまま返す。
	Save(ctx context.Context, data T) (*E, error)
}

// エラーメッセージ
const (
	msgRequired      = "This field is required."
	msgInvalidEmail  = "Enter a valid email address."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalid       = "Enter a valid value."
)

// FieldUnavailable は入力値ではなく依存先の障害で検証できなかったことを示すキー。
// このキーを含むFieldErrorsは利用者の入力エラーとして扱わない。
const FieldUnavailable = "__unavailable__"

const msgUnavailable = "Unable to verify the submission at the moment."

// FieldErrors はフィールド名ごとの検証エラーメッセージ。
type FieldErrors map[string][]string

// Add はフィールドにエラーメッセージを追加する。
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Has はフィールドにエラーがあるかを返す。
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// First はフィールドの最初のエラーメッセージを返す。エラーがない場合は空文字。
func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Unavailable は依存先の障害で検証が完了しなかったかを返す。
func (fe FieldErrors) Unavailable() bool {
	return fe.Has(FieldUnavailable)
}

// Valid はエラーが1件もないかを返す。
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

var (
	validate = newValidator()
	stripper = bluemonday.StrictPolicy()
)

// newValidator はformタグをフィールド名として扱うvalidatorを生成する。
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// cleanText は前後の空白を除去し、HTMLタグを取り除いたプレーンテキストを返す。
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(strings.TrimSpace(s))))
}

// validateStruct はvalidatorのタグに従って構造体を検証し、FieldErrorsに変換する。
func validateStruct(s interface{}, errs FieldErrors) {
	err := validate.Struct(s)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("__all__", msgInvalid)
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), messageFor(fe))
	}
}

// messageFor は検証エラーを表示用のメッセージに変換する。
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	default:
		return msgInvalid
	}
}
