package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/newspaper/internal/model"
)

// postColumns は投稿取得時のSELECT句。scanPostと順序を一致させること。
const postColumns = `p.id, p.title, p.content, p.featured_image, p.status, p.views_count,
		       p.published_at, p.category_id, c.name, p.created_at, p.updated_at`

// postFrom は投稿とカテゴリを結合するFROM句。
const postFrom = `FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id`

// visibleCondition は公開中の投稿を表すWHERE条件。
const visibleCondition = `p.status = 'active' AND p.published_at IS NOT NULL`

// likeEscaper はLIKEパターンのメタ文字をエスケープする。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// buildVisibleWhere はPostQueryの絞り込み条件からWHERE句と引数を構築する。
func buildVisibleWhere(q PostQuery) (string, []interface{}) {
	var args []interface{}
	conds := []string{visibleCondition}

	if q.CategoryID != 0 {
		args = append(args, q.CategoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}

	if q.TagID != 0 {
		args = append(args, q.TagID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = $%d)", len(args)))
	}

	if q.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(q.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", n, n))
	}

	if q.PublishedSince != nil {
		args = append(args, *q.PublishedSince)
		conds = append(conds, fmt.Sprintf("p.published_at >= $%d", len(args)))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderByClause はPostOrderに対応するORDER BY句を返す。
// 同順位の並びを安定させるため、末尾にidを加える。
func orderByClause(order PostOrder) string {
	switch order {
	case OrderPublishedDesc:
		return " ORDER BY p.published_at DESC, p.id DESC"
	case OrderPublishedDescViewsDesc:
		return " ORDER BY p.published_at DESC, p.views_count DESC, p.id DESC"
	default:
		return " ORDER BY p.created_at DESC, p.id DESC"
	}
}

// buildListVisibleQuery はListVisibleのSQLと引数を構築する。
func buildListVisibleQuery(q PostQuery) (string, []interface{}) {
	where, args := buildVisibleWhere(q)
	query := "SELECT " + postColumns + " " + postFrom + where + orderByClause(q.Order)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}

// ListVisible は条件に一致する公開中の投稿を取得する。
func (r *PostgresPostRepo) ListVisible(ctx context.Context, q PostQuery) ([]*model.Post, error) {
	query, args := buildListVisibleQuery(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の走査に失敗しました: %w", err)
	}

	return posts, nil
}

// CountVisible は条件に一致する公開中の投稿数を返す。
func (r *PostgresPostRepo) CountVisible(ctx context.Context, q PostQuery) (int, error) {
	where, args := buildVisibleWhere(q)

	var count int
	err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM posts p"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("投稿数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// FindVisibleByID は公開中の投稿をIDで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindVisibleByID(ctx context.Context, id int64) (*model.Post, error) {
	return r.findOne(ctx,
		"SELECT "+postColumns+" "+postFrom+" WHERE p.id = $1 AND "+visibleCondition,
		id,
	)
}

// FindByID は公開状態に関係なく投稿をIDで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	return r.findOne(ctx,
		"SELECT "+postColumns+" "+postFrom+" WHERE p.id = $1",
		id,
	)
}

// FindPreviousVisible はidより小さい公開中の投稿のうちidが最大のものを返す。
func (r *PostgresPostRepo) FindPreviousVisible(ctx context.Context, id int64) (*model.Post, error) {
	return r.findOne(ctx,
		"SELECT "+postColumns+" "+postFrom+" WHERE p.id < $1 AND "+visibleCondition+
			" ORDER BY p.id DESC LIMIT 1",
		id,
	)
}

// FindNextVisible はidより大きい公開中の投稿のうちidが最小のものを返す。
func (r *PostgresPostRepo) FindNextVisible(ctx context.Context, id int64) (*model.Post, error) {
	return r.findOne(ctx,
		"SELECT "+postColumns+" "+postFrom+" WHERE p.id > $1 AND "+visibleCondition+
			" ORDER BY p.id ASC LIMIT 1",
		id,
	)
}

// IncrementViews はviews_countを1加算し、加算後の値を返す。
func (r *PostgresPostRepo) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE posts SET views_count = views_count + 1 WHERE id = $1 RETURNING views_count`,
		id,
	).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, model.PostNotFoundError(id)
	}
	if err != nil {
		return 0, fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	return views, nil
}

// ListTagsByPost は投稿に付与されたタグをID昇順で返す。
func (r *PostgresPostRepo) ListTagsByPost(ctx context.Context, postID int64) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.name
		 FROM tags t
		 INNER JOIN post_tags pt ON pt.tag_id = t.id
		 WHERE pt.post_id = $1
		 ORDER BY t.id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ一覧の走査に失敗しました: %w", err)
	}

	return tags, nil
}

// Exists は公開状態に関係なく投稿が存在するかを返す。
func (r *PostgresPostRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("投稿の存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// findOne は1件取得クエリを実行する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) findOne(ctx context.Context, query string, args ...interface{}) (*model.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return post, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPost はpostColumnsの順で1行を読み取る。
func scanPost(s rowScanner) (*model.Post, error) {
	post := &model.Post{}
	var featuredImage, categoryName sql.NullString
	var publishedAt sql.NullTime
	var categoryID sql.NullInt64
	var status string

	if err := s.Scan(
		&post.ID, &post.Title, &post.Content, &featuredImage, &status, &post.ViewsCount,
		&publishedAt, &categoryID, &categoryName, &post.CreatedAt, &post.UpdatedAt,
	); err != nil {
		return nil, err
	}

	post.Status = model.PostStatus(status)
	post.FeaturedImage = nullStringValue(featuredImage)
	if publishedAt.Valid {
		t := publishedAt.Time
		post.PublishedAt = &t
	}
	if categoryID.Valid {
		id := categoryID.Int64
		post.CategoryID = &id
		post.Category = &model.Category{ID: id, Name: nullStringValue(categoryName)}
	}

	return post, nil
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
