package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quillpost/quillpost-go/internal/middleware"
	"github.com/quillpost/quillpost-go/internal/model"
	"github.com/quillpost/quillpost-go/internal/service"
)

// BlogHandler handles HTTP requests for blog operations.
type BlogHandler struct {
	service *service.BlogService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(svc *service.BlogService) *BlogHandler {
	return &BlogHandler{service: svc}
}

// HandleCreate handles POST /blogs requests.
func (h *BlogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.CreateBlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	blog, err := h.service.CreateBlog(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBlogFieldsRequired):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrTitleTaken):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		default:
			internalError(w, r, "create blog failed", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.BlogResponse{Message: "Blog created successfully", Blog: blog})
}

// HandleList handles GET /blogs requests.
func (h *BlogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.ListBlogs(r.Context())
	if err != nil {
		internalError(w, r, "list blogs failed", err)
		return
	}

	writeJSON(w, http.StatusOK, blogs)
}

// HandleGet handles GET /blogs/{id} requests.
func (h *BlogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}

	blog, err := h.service.GetBlog(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBlogNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		internalError(w, r, "get blog failed", err)
		return
	}

	writeJSON(w, http.StatusOK, blog)
}

// HandleUpdate handles PUT /blogs/{id} requests.
func (h *BlogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}

	var req model.UpdateBlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	blog, err := h.service.UpdateBlog(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBlogFieldEmpty):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrBlogNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		case errors.Is(err, service.ErrTitleTaken):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		default:
			internalError(w, r, "update blog failed", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.BlogResponse{Message: "Blog updated successfully", Blog: blog})
}

// HandleDelete handles DELETE /blogs/{id} requests.
func (h *BlogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBlog(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrBlogNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		internalError(w, r, "delete blog failed", err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Blog deleted successfully"})
}

func blogID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid blog id"))
		return 0, false
	}
	return id, true
}
