package model

import (
	"errors"
	"fmt"
)

// ErrPostNotFound は公開中の投稿が見つからない場合のエラー。
var ErrPostNotFound = errors.New("post not found")

// ErrMissingParameter は必須のリクエストパラメータが欠落している場合のエラー。
var ErrMissingParameter = errors.New("missing required parameter")

// PostNotFoundError は投稿IDを付与した未検出エラーを生成する。
// errors.Is(err, ErrPostNotFound) で判定できる。
func PostNotFoundError(id int64) error {
	return fmt.Errorf("%w: id=%d", ErrPostNotFound, id)
}

// MissingParameterError はパラメータ名を付与した欠落エラーを生成する。
func MissingParameterError(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingParameter, name)
}
