package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/newspaper/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用したお問い合わせリポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// Create はお問い合わせメッセージを作成する。
func (r *PostgresContactRepo) Create(ctx context.Context, msg *model.ContactMessage) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contacts (name, email, subject, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		msg.Name, msg.Email, msg.Subject, msg.Message,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("お問い合わせの作成に失敗しました: %w", err)
	}
	return nil
}

// PostgresNewsletterRepo はPostgreSQLを使用したニュースレター購読者リポジトリ。
type PostgresNewsletterRepo struct {
	db *sql.DB
}

// NewPostgresNewsletterRepo はPostgresNewsletterRepoを生成する。
func NewPostgresNewsletterRepo(db *sql.DB) *PostgresNewsletterRepo {
	return &PostgresNewsletterRepo{db: db}
}

// Create は購読者を作成する。同一メールアドレスでも重複排除しない。
func (r *PostgresNewsletterRepo) Create(ctx context.Context, sub *model.NewsletterSubscriber) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO newsletters (email) VALUES ($1) RETURNING id, created_at`,
		sub.Email,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("ニュースレター購読の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
var _ NewsletterRepository = (*PostgresNewsletterRepo)(nil)
