package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/quillpost/quillpost-go/internal/model"
	"github.com/quillpost/quillpost-go/internal/repository"
)

type fakeUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*model.User
	nextID  int64
	err     error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	stored := *user
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type fakeBlogStore struct {
	blogs  map[int64]model.Blog
	nextID int64

	updates     int
	replacedTag bool
	tick        int
}

// stamp stands in for the store's CURRENT_TIMESTAMP columns.
func (f *fakeBlogStore) stamp() time.Time {
	f.tick++
	return time.Date(2026, 1, 1, 0, 0, f.tick, 0, time.UTC)
}

func newFakeBlogStore() *fakeBlogStore {
	return &fakeBlogStore{blogs: make(map[int64]model.Blog)}
}

func (f *fakeBlogStore) Create(_ context.Context, blog *model.Blog) error {
	for _, b := range f.blogs {
		if b.Title == blog.Title {
			return repository.ErrDuplicateTitle
		}
	}
	f.nextID++
	ts := f.stamp()
	stored := *blog
	stored.ID = f.nextID
	stored.CreatedAt, stored.UpdatedAt = ts, ts
	stored.Tags = slices.Clone(blog.Tags)
	f.blogs[stored.ID] = stored
	blog.ID = stored.ID
	return nil
}

func (f *fakeBlogStore) GetByID(_ context.Context, id int64) (*model.Blog, error) {
	b, ok := f.blogs[id]
	if !ok {
		return nil, repository.ErrBlogNotFound
	}
	b.Tags = slices.Sorted(slices.Values(b.Tags))
	return &b, nil
}

func (f *fakeBlogStore) List(context.Context) ([]model.Blog, error) {
	out := []model.Blog{}
	for id := int64(1); id <= f.nextID; id++ {
		if b, ok := f.blogs[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlogStore) TitleExists(_ context.Context, title string, excludeID int64) (bool, error) {
	for id, b := range f.blogs {
		if b.Title == title && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlogStore) Update(_ context.Context, blog *model.Blog, replaceTags bool) error {
	prev, ok := f.blogs[blog.ID]
	if !ok {
		return repository.ErrBlogNotFound
	}
	f.updates++
	f.replacedTag = replaceTags
	stored := *blog
	stored.CreatedAt = prev.CreatedAt
	stored.UpdatedAt = f.stamp()
	stored.Tags = slices.Clone(blog.Tags)
	f.blogs[blog.ID] = stored
	return nil
}

func (f *fakeBlogStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.blogs[id]; !ok {
		return repository.ErrBlogNotFound
	}
	delete(f.blogs, id)
	return nil
}

type fakeTokens struct {
	err error
}

func (f fakeTokens) Issue(userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("token-for-%d", userID), nil
}

var errStoreDown = errors.New("store down")
