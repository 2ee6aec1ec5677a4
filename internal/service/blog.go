package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/quillpost/quillpost-go/internal/model"
	"github.com/quillpost/quillpost-go/internal/repository"
)

var (
	ErrBlogFieldsRequired = errors.New("title, content, author, and category are required")
	ErrBlogFieldEmpty     = errors.New("title, content, author, and category cannot be empty")
	ErrTitleTaken         = errors.New("a blog with this title already exists")
	ErrBlogNotFound       = errors.New("blog not found")
)

// BlogStore persists blogs and their tags.
type BlogStore interface {
	Create(ctx context.Context, blog *model.Blog) error
	GetByID(ctx context.Context, id int64) (*model.Blog, error)
	List(ctx context.Context) ([]model.Blog, error)
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	Update(ctx context.Context, blog *model.Blog, replaceTags bool) error
	Delete(ctx context.Context, id int64) error
}

// BlogService handles blog business logic.
type BlogService struct {
	repo BlogStore
	now  func() time.Time
}

// NewBlogService creates a new BlogService.
func NewBlogService(repo BlogStore) *BlogService {
	return &BlogService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateBlog creates a blog owned by userID, published now, and returns
// the stored row.
func (s *BlogService) CreateBlog(ctx context.Context, userID int64, req model.CreateBlogRequest) (model.Blog, error) {
	if req.Title == "" || req.Content == "" || req.Author == "" || req.Category == "" {
		return model.Blog{}, ErrBlogFieldsRequired
	}

	if err := s.ensureTitleFree(ctx, req.Title, 0); err != nil {
		return model.Blog{}, err
	}

	blog := model.Blog{
		Title:         req.Title,
		Content:       req.Content,
		Author:        req.Author,
		Image:         req.Image,
		Category:      req.Category,
		AuthorPic:     req.AuthorPic,
		PublishedDate: s.now().Truncate(time.Second),
		Matter:        req.Matter,
		UserID:        userID,
		Tags:          normalizeTags(req.Tags),
	}

	if err := s.repo.Create(ctx, &blog); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return model.Blog{}, ErrTitleTaken
		}
		return model.Blog{}, err
	}

	return s.GetBlog(ctx, blog.ID)
}

// ListBlogs returns every blog.
func (s *BlogService) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	return s.repo.List(ctx)
}

// GetBlog returns a single blog.
func (s *BlogService) GetBlog(ctx context.Context, id int64) (model.Blog, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return model.Blog{}, ErrBlogNotFound
		}
		return model.Blog{}, err
	}
	return *blog, nil
}

// UpdateBlog applies the non-nil fields of req to the blog and returns the
// stored row.
func (s *BlogService) UpdateBlog(ctx context.Context, id int64, req model.UpdateBlogRequest) (model.Blog, error) {
	for _, f := range []*string{req.Title, req.Content, req.Author, req.Category} {
		if f != nil && *f == "" {
			return model.Blog{}, ErrBlogFieldEmpty
		}
	}

	blog, err := s.GetBlog(ctx, id)
	if err != nil {
		return model.Blog{}, err
	}

	if req.Title != nil && *req.Title != blog.Title {
		if err := s.ensureTitleFree(ctx, *req.Title, id); err != nil {
			return model.Blog{}, err
		}
		blog.Title = *req.Title
	}
	setIfPresent(&blog.Content, req.Content)
	setIfPresent(&blog.Author, req.Author)
	setIfPresent(&blog.Category, req.Category)
	if req.Image != nil {
		blog.Image = req.Image
	}
	if req.AuthorPic != nil {
		blog.AuthorPic = req.AuthorPic
	}
	if req.Matter != nil {
		blog.Matter = req.Matter
	}
	replaceTags := req.Tags != nil
	if replaceTags {
		blog.Tags = normalizeTags(*req.Tags)
	}

	if err := s.repo.Update(ctx, &blog, replaceTags); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTitle):
			return model.Blog{}, ErrTitleTaken
		case errors.Is(err, repository.ErrBlogNotFound):
			return model.Blog{}, ErrBlogNotFound
		}
		return model.Blog{}, err
	}

	return s.GetBlog(ctx, id)
}

// DeleteBlog removes a blog.
func (s *BlogService) DeleteBlog(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return ErrBlogNotFound
		}
		return err
	}
	return nil
}

func (s *BlogService) ensureTitleFree(ctx context.Context, title string, excludeID int64) error {
	exists, err := s.repo.TitleExists(ctx, title, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrTitleTaken
	}
	return nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// normalizeTags trims names and drops blanks and duplicates, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
