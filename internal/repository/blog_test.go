package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpost/quillpost-go/internal/model"
)

var blogColumns = []string{
	"id", "title", "content", "author", "image", "category", "author_pic",
	"published_date", "matter", "user_id", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func TestBlogCreate_WithTags(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertBlogQuery)).
		WithArgs("A", "c", "Ann", nil, "life", "pic.png", sqlmock.AnyArg(), nil, int64(3)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertTagQuery)).
		WithArgs("go").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta(linkTagQuery)).
		WithArgs(int64(11), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	blog := &model.Blog{
		Title: "A", Content: "c", Author: "Ann", Category: "life",
		AuthorPic: strPtr("pic.png"), PublishedDate: time.Now(), UserID: 3,
		Tags: []string{"go"},
	}
	require.NoError(t, repo.Create(context.Background(), blog))
	assert.Equal(t, int64(11), blog.ID)
}

func TestBlogCreate_TagsResolvingToSameRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertBlogQuery)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertTagQuery)).
		WithArgs("Go").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta(linkTagQuery)).
		WithArgs(int64(11), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertTagQuery)).
		WithArgs("go").
		WillReturnResult(sqlmock.NewResult(5, 0))
	mock.ExpectExec(regexp.QuoteMeta(linkTagQuery)).
		WithArgs(int64(11), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	blog := &model.Blog{Title: "A", Content: "c", Author: "Ann", Category: "life", UserID: 3, Tags: []string{"Go", "go"}}
	require.NoError(t, repo.Create(context.Background(), blog))
	assert.Equal(t, int64(11), blog.ID)
	assert.True(t, strings.HasPrefix(linkTagQuery, "INSERT IGNORE"))
}

func TestTagNamesCompareExactly(t *testing.T) {
	ddl, err := migrations.ReadFile("migrations/00002_create_blogs.sql")
	require.NoError(t, err)
	assert.Contains(t, string(ddl), "name VARCHAR(255) NOT NULL COLLATE utf8mb4_bin")
}

func TestBlogCreate_DuplicateTitle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertBlogQuery)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'A' for key 'uq_blogs_title'"})
	mock.ExpectRollback()

	blog := &model.Blog{Title: "A", Content: "c", Author: "Ann", Category: "life", UserID: 3}
	err := repo.Create(context.Background(), blog)
	assert.ErrorIs(t, err, ErrDuplicateTitle)
	assert.Zero(t, blog.ID)
}

func TestBlogCreate_TagFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertBlogQuery)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertTagQuery)).
		WithArgs("go").
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	blog := &model.Blog{Title: "A", Content: "c", Author: "Ann", Category: "life", UserID: 3, Tags: []string{"go"}}
	err := repo.Create(context.Background(), blog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `upsert tag "go"`)
}

func TestBlogGetByID_Found(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectBlogByIDQuery)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(blogColumns).
			AddRow(int64(11), "A", "c", "Ann", "img.png", "life", nil, now, nil, int64(3), now, now))
	mock.ExpectQuery(regexp.QuoteMeta(selectBlogTagsQuery)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("go").AddRow("life"))

	blog, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "A", blog.Title)
	require.NotNil(t, blog.Image)
	assert.Equal(t, "img.png", *blog.Image)
	assert.Nil(t, blog.AuthorPic)
	assert.Nil(t, blog.Matter)
	assert.Equal(t, int64(3), blog.UserID)
	assert.Equal(t, []string{"go", "life"}, blog.Tags)
}

func TestBlogGetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectBlogByIDQuery)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(blogColumns))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestBlogList_AttachesTags(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectBlogsQuery)).
		WillReturnRows(sqlmock.NewRows(blogColumns).
			AddRow(int64(1), "A", "c", "Ann", nil, "life", nil, now, nil, int64(3), now, now).
			AddRow(int64(2), "B", "d", "Bob", nil, "tech", nil, now, "draft", int64(4), now, now))
	mock.ExpectQuery(regexp.QuoteMeta(selectAllBlogTagsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"blog_id", "name"}).
			AddRow(int64(2), "go").
			AddRow(int64(2), "sql").
			AddRow(int64(99), "orphan"))

	blogs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, blogs, 2)
	assert.Equal(t, []string{}, blogs[0].Tags)
	assert.Equal(t, []string{"go", "sql"}, blogs[1].Tags)
	require.NotNil(t, blogs[1].Matter)
	assert.Equal(t, "draft", *blogs[1].Matter)
}

func TestBlogList_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectBlogsQuery)).
		WillReturnRows(sqlmock.NewRows(blogColumns))
	mock.ExpectQuery(regexp.QuoteMeta(selectAllBlogTagsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"blog_id", "name"}))

	blogs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, blogs)
	assert.Empty(t, blogs)
}

func TestBlogTitleExists(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(titleExistsQuery)).
		WithArgs("A", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(int64(1)))

	exists, err := repo.TitleExists(context.Background(), "A", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBlogUpdate_ReplacesTags(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateBlogQuery)).
		WithArgs("A2", "c", "Ann", nil, "life", nil, "m", int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(unlinkTagsQuery)).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(upsertTagQuery)).
		WithArgs("new").
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(regexp.QuoteMeta(linkTagQuery)).
		WithArgs(int64(11), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	blog := &model.Blog{ID: 11, Title: "A2", Content: "c", Author: "Ann", Category: "life", Matter: strPtr("m"), Tags: []string{"new"}}
	require.NoError(t, repo.Update(context.Background(), blog, true))
}

func TestBlogUpdate_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateBlogQuery)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &model.Blog{ID: 404, Title: "A"}, false)
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestBlogUpdate_DuplicateTitle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateBlogQuery)).
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &model.Blog{ID: 1, Title: "B"}, false)
	assert.ErrorIs(t, err, ErrDuplicateTitle)
}

func TestBlogDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(deleteBlogQuery)).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteBlogQuery)).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 11))
	assert.ErrorIs(t, repo.Delete(context.Background(), 11), ErrBlogNotFound)
}
