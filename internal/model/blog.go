package model

import "time"

// Blog represents a blog post. Image, AuthorPic and Matter are optional.
type Blog struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	Image         *string   `json:"image"`
	Category      string    `json:"category"`
	AuthorPic     *string   `json:"authorPic"`
	PublishedDate time.Time `json:"publishedDate"`
	Matter        *string   `json:"matter"`
	UserID        int64     `json:"userId"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateBlogRequest represents a blog creation request.
type CreateBlogRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Author    string   `json:"author"`
	Image     *string  `json:"image"`
	Category  string   `json:"category"`
	AuthorPic *string  `json:"authorPic"`
	Matter    *string  `json:"matter"`
	Tags      []string `json:"tags"`
}

// UpdateBlogRequest is a partial update; nil fields are left unchanged.
// A non-nil Tags replaces the whole tag set.
type UpdateBlogRequest struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	Author    *string   `json:"author"`
	Image     *string   `json:"image"`
	Category  *string   `json:"category"`
	AuthorPic *string   `json:"authorPic"`
	Matter    *string   `json:"matter"`
	Tags      *[]string `json:"tags"`
}

// BlogResponse wraps a blog with a status message.
type BlogResponse struct {
	Message string `json:"message"`
	Blog    Blog   `json:"blog"`
}
