package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quillpost/quillpost-go/internal/model"
)

var (
	ErrBlogNotFound   = errors.New("blog not found")
	ErrDuplicateTitle = errors.New("blog title already exists")
)

const (
	insertBlogQuery = `INSERT INTO blogs (title, content, author, image, category, author_pic, published_date, matter, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectBlogColumns = `SELECT id, title, content, author, image, category, author_pic, published_date, matter, user_id, created_at, updated_at
		FROM blogs`

	selectBlogByIDQuery = selectBlogColumns + ` WHERE id = ?`
	selectBlogsQuery    = selectBlogColumns + ` ORDER BY id`

	titleExistsQuery = `SELECT EXISTS(SELECT 1 FROM blogs WHERE title = ? AND id <> ?)`

	updateBlogQuery = `UPDATE blogs SET title = ?, content = ?, author = ?, image = ?, category = ?, author_pic = ?, matter = ?
		WHERE id = ?`

	deleteBlogQuery = `DELETE FROM blogs WHERE id = ?`

	// LAST_INSERT_ID(id) makes LastInsertId report the existing row on conflict.
	upsertTagQuery = `INSERT INTO tags (name) VALUES (?) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`

	// IGNORE: two names may resolve to the same tag row.
	linkTagQuery    = `INSERT IGNORE INTO blog_tags (blog_id, tag_id) VALUES (?, ?)`
	unlinkTagsQuery = `DELETE FROM blog_tags WHERE blog_id = ?`

	selectBlogTagsQuery = `SELECT t.name FROM tags t JOIN blog_tags bt ON bt.tag_id = t.id
		WHERE bt.blog_id = ? ORDER BY t.name`
	selectAllBlogTagsQuery = `SELECT bt.blog_id, t.name FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id
		ORDER BY bt.blog_id, t.name`
)

// BlogRepository handles blog and tag persistence operations.
type BlogRepository struct {
	db *sql.DB
}

// NewBlogRepository creates a new BlogRepository.
func NewBlogRepository(db *sql.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// Create inserts the blog and links its tags in one transaction, creating
// tags that do not exist yet. The generated ID is set on blog.
func (r *BlogRepository) Create(ctx context.Context, blog *model.Blog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, insertBlogQuery,
		blog.Title,
		blog.Content,
		blog.Author,
		nullString(blog.Image),
		blog.Category,
		nullString(blog.AuthorPic),
		blog.PublishedDate,
		nullString(blog.Matter),
		blog.UserID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateTitle
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if err := linkTags(ctx, tx, id, blog.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	blog.ID = id
	return nil
}

// GetByID retrieves a blog and its tags.
func (r *BlogRepository) GetByID(ctx context.Context, id int64) (*model.Blog, error) {
	blog, err := scanBlog(r.db.QueryRowContext(ctx, selectBlogByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectBlogTagsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		blog.Tags = append(blog.Tags, name)
	}

	return &blog, rows.Err()
}

// List retrieves all blogs ordered by ID, each with its tags.
func (r *BlogRepository) List(ctx context.Context) ([]model.Blog, error) {
	rows, err := r.db.QueryContext(ctx, selectBlogsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []model.Blog{}
	index := make(map[int64]int)
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		index[blog.ID] = len(blogs)
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := r.db.QueryContext(ctx, selectAllBlogTagsQuery)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var (
			blogID int64
			name   string
		)
		if err := tagRows.Scan(&blogID, &name); err != nil {
			return nil, err
		}
		if i, ok := index[blogID]; ok {
			blogs[i].Tags = append(blogs[i].Tags, name)
		}
	}

	return blogs, tagRows.Err()
}

// TitleExists reports whether a blog other than excludeID has the given title.
func (r *BlogRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, titleExistsQuery, title, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Update overwrites the editable columns of blog. When replaceTags is set the
// tag links are replaced by blog.Tags in the same transaction.
func (r *BlogRepository) Update(ctx context.Context, blog *model.Blog, replaceTags bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, updateBlogQuery,
		blog.Title,
		blog.Content,
		blog.Author,
		nullString(blog.Image),
		blog.Category,
		nullString(blog.AuthorPic),
		nullString(blog.Matter),
		blog.ID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateTitle
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBlogNotFound
	}

	if replaceTags {
		if _, err := tx.ExecContext(ctx, unlinkTagsQuery, blog.ID); err != nil {
			return err
		}
		if err := linkTags(ctx, tx, blog.ID, blog.Tags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a blog; its tag links cascade.
func (r *BlogRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, deleteBlogQuery, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBlogNotFound
	}

	return nil
}

func linkTags(ctx context.Context, tx *sql.Tx, blogID int64, tags []string) error {
	for _, name := range tags {
		result, err := tx.ExecContext(ctx, upsertTagQuery, name)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
		tagID, err := result.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, linkTagQuery, blogID, tagID); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (model.Blog, error) {
	var (
		b                        model.Blog
		image, authorPic, matter sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.Title, &b.Content, &b.Author, &image, &b.Category, &authorPic,
		&b.PublishedDate, &matter, &b.UserID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return model.Blog{}, err
	}

	b.Image = stringPtr(image)
	b.AuthorPic = stringPtr(authorPic)
	b.Matter = stringPtr(matter)
	b.Tags = []string{}
	return b, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
