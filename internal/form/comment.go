package form

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/newspaper/internal/model"
	"github.com/hitoshi/newspaper/internal/repository"
)

// CommentInput はコメントフォームの検証済み入力。
// PostIDはformタグ"post"で受け取り、validatorの対象外として個別に検証する。
type CommentInput struct {
	PostID  int64  `form:"-"`
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Comment string `form:"comment" validate:"required"`
}

// PostExistence は投稿の存在確認を行う。repository.PostRepositoryが満たす。
type PostExistence interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// CommentForm は投稿へのコメントを受け付ける。
type CommentForm struct {
	posts    PostExistence
	comments repository.CommentRepository
}

// NewCommentForm はCommentFormを生成する。
func NewCommentForm(posts PostExistence, comments repository.CommentRepository) *CommentForm {
	return &CommentForm{posts: posts, comments: comments}
}

// Validate はコメントフォームの入力を検証する。
// postは既存の投稿IDである必要がある（公開状態は問わない）。
// 存在確認に失敗した場合はFieldUnavailableにエラーを積む。
func (f *CommentForm) Validate(ctx context.Context, values url.Values) (CommentInput, FieldErrors) {
	in := CommentInput{
		Name:    cleanText(values.Get("name")),
		Email:   cleanText(values.Get("email")),
		Comment: cleanText(values.Get("comment")),
	}
	errs := FieldErrors{}

	raw := strings.TrimSpace(values.Get("post"))
	switch {
	case raw == "":
		errs.Add("post", msgRequired)
	default:
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			errs.Add("post", msgInvalidChoice)
			break
		}
		exists, err := f.posts.Exists(ctx, id)
		if err != nil {
			slog.Error("failed to check post existence",
				slog.Int64("post_id", id),
				slog.String("error", err.Error()),
			)
			errs.Add(FieldUnavailable, msgUnavailable)
			break
		}
		if !exists {
			errs.Add("post", msgInvalidChoice)
			break
		}
		in.PostID = id
	}

	validateStruct(in, errs)
	return in, errs
}

// Save はコメントを保存する。
func (f *CommentForm) Save(ctx context.Context, in CommentInput) (*model.Comment, error) {
	c := &model.Comment{
		PostID:  in.PostID,
		Name:    in.Name,
		Email:   in.Email,
		Comment: in.Comment,
	}
	if err := f.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの保存に失敗しました: %w", err)
	}
	return c, nil
}

var _ Form[CommentInput, model.Comment] = (*CommentForm)(nil)
