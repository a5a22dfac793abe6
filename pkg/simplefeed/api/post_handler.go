package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// CreatePostRequest is the request body for creating a post
type CreatePostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Type       string   `json:"type"`
	Source     *string  `json:"source,omitempty"`
	Author     *string  `json:"author,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IsBreaking *bool    `json:"isBreaking,omitempty"`
}

func (req CreatePostRequest) toDraft() simplefeed.CreatePostRequest {
	return simplefeed.CreatePostRequest{
		Title:      req.Title,
		Content:    req.Content,
		Type:       simplefeed.PostType(req.Type),
		Source:     req.Source,
		Author:     req.Author,
		Tags:       req.Tags,
		IsBreaking: req.IsBreaking,
	}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string                  `json:"message"`
	Errors  []simplefeed.FieldError `json:"errors,omitempty"`
}

// PostHandler handles HTTP requests for posts and feed statistics
type PostHandler struct {
	service simplefeed.Service
	logger  *slog.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(service simplefeed.Service, logger *slog.Logger) *PostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{
		service: service,
		logger:  logger,
	}
}

// Routes returns the routes for posts
func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/stats", h.GetStats)

	return r
}

// ListPosts resolves the query parameters into a single feed query
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := simplefeed.ListPostsRequest{
		Type:   q.Get("type"),
		Search: q.Get("search"),
		Limit:  parseIntDefault(q.Get("limit"), simplefeed.DefaultLimit),
		Offset: parseIntDefault(q.Get("offset"), simplefeed.DefaultOffset),
	}

	var fields []simplefeed.FieldError
	if raw := q.Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			fields = append(fields, simplefeed.FieldError{Field: "startDate", Message: err.Error()})
		}
		req.StartDate = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			fields = append(fields, simplefeed.FieldError{Field: "endDate", Message: err.Error()})
		}
		req.EndDate = &t
	}
	if len(fields) > 0 {
		h.logger.Warn("Invalid post query", "errors", fields)
		respondError(w, r, http.StatusBadRequest, "Invalid query parameters", fields)
		return
	}

	posts, err := h.service.ListPosts(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to fetch posts", "error", err)
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch posts", nil)
		return
	}

	render.JSON(w, r, posts)
}

// GetPost returns one post and counts the view
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Warn("Invalid post ID", "post_id", idStr, "error", err)
		respondError(w, r, http.StatusBadRequest, "Invalid post ID", nil)
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, simplefeed.ErrPostNotFound) {
			respondError(w, r, http.StatusNotFound, "Post not found", nil)
			return
		}
		h.logger.Error("Failed to fetch post", "post_id", id, "error", err)
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch post", nil)
		return
	}

	render.JSON(w, r, post)
}

// CreatePost validates the body, stores the post and announces it
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Malformed post body", "error", err)
		respondError(w, r, http.StatusBadRequest, "Invalid post data",
			[]simplefeed.FieldError{{Field: "body", Message: err.Error()}})
		return
	}

	draft := req.toDraft()
	if err := simplefeed.ValidateCreatePostRequest(draft); err != nil {
		var verr *simplefeed.ValidationError
		if errors.As(err, &verr) {
			respondError(w, r, http.StatusBadRequest, "Invalid post data", verr.Fields)
			return
		}
		respondError(w, r, http.StatusBadRequest, "Invalid post data", nil)
		return
	}

	post, err := h.service.CreatePost(r.Context(), draft)
	if err != nil {
		h.logger.Error("Failed to create post", "error", err)
		respondError(w, r, http.StatusInternalServerError, "Failed to create post", nil)
		return
	}

	h.logger.Info("Post created", "post_id", post.ID, "type", post.Type)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

// GetStats returns feed-wide aggregates
func (h *PostHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch statistics", "error", err)
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch statistics", nil)
		return
	}
	render.JSON(w, r, stats)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string, fields []simplefeed.FieldError) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: message, Errors: fields})
}

// parseIntDefault returns def for empty, malformed or zero values.
func parseIntDefault(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n == 0 {
		return def
	}
	return n
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and calendar dates (midnight UTC).
func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected RFC 3339 or YYYY-MM-DD", raw)
}
