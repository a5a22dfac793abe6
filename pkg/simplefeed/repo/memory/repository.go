package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// Repository implements simplefeed.Repository using in-memory storage.
// Posts live in an arena indexed by id-1; ids are never reused.
type Repository struct {
	mu    sync.RWMutex
	posts []*simplefeed.Post
	now   func() time.Time
}

// Option configures a Repository
type Option func(*Repository)

// WithClock replaces the time source used for createdAt
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New creates a new in-memory repository
func New(opts ...Option) *Repository {
	r := &Repository{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ simplefeed.Repository = (*Repository)(nil)

func (r *Repository) CreatePost(ctx context.Context, req simplefeed.CreatePostRequest) (*simplefeed.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createLocked(req).Clone(), nil
}

// createLocked must be called with the write lock held.
func (r *Repository) createLocked(req simplefeed.CreatePostRequest) *simplefeed.Post {
	post := &simplefeed.Post{
		ID:         int64(len(r.posts)) + 1,
		Title:      req.Title,
		Content:    req.Content,
		Type:       req.Type,
		Source:     normalizeOptional(req.Source),
		Author:     normalizeOptional(req.Author),
		IsBreaking: req.IsBreaking != nil && *req.IsBreaking,
		ViewCount:  0,
		CreatedAt:  r.now().UTC(),
	}
	if req.Tags != nil {
		post.Tags = append([]string(nil), req.Tags...)
	}

	r.posts = append(r.posts, post)
	return post
}

func (r *Repository) GetPost(ctx context.Context, id int64) (*simplefeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post := r.lookup(id)
	if post == nil {
		return nil, simplefeed.ErrPostNotFound
	}
	return post.Clone(), nil
}

func (r *Repository) ListPosts(ctx context.Context, limit, offset int) ([]*simplefeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return paginate(r.collect(nil), limit, offset), nil
}

func (r *Repository) ListPostsByType(ctx context.Context, postType simplefeed.PostType, limit, offset int) ([]*simplefeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.collect(func(p *simplefeed.Post) bool {
		return p.Type == postType
	})
	return paginate(matches, limit, offset), nil
}

func (r *Repository) SearchPosts(ctx context.Context, query string) ([]*simplefeed.Post, error) {
	q := strings.ToLower(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(p *simplefeed.Post) bool {
		return matchesQuery(p, q)
	}), nil
}

func (r *Repository) ListPostsByDateRange(ctx context.Context, start, end time.Time) ([]*simplefeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(p *simplefeed.Post) bool {
		return !p.CreatedAt.Before(start) && !p.CreatedAt.After(end)
	}), nil
}

func (r *Repository) IncrementViewCount(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post := r.lookup(id); post != nil {
		post.ViewCount++
	}
	return nil
}

func (r *Repository) AllPosts(ctx context.Context) ([]*simplefeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(nil), nil
}

// Seed bulk-loads drafts through the regular creation path, in order.
func (r *Repository) Seed(ctx context.Context, drafts []simplefeed.CreatePostRequest) ([]*simplefeed.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := make([]*simplefeed.Post, 0, len(drafts))
	for i, d := range drafts {
		if err := ctx.Err(); err != nil {
			return created, fmt.Errorf("seed stopped after %d posts: %w", i, err)
		}
		created = append(created, r.createLocked(d).Clone())
	}
	return created, nil
}

// Reset drops every post and restarts id allocation at 1.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.posts = nil
}

// Len returns the number of stored posts.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.posts)
}

func (r *Repository) lookup(id int64) *simplefeed.Post {
	if id < 1 || id > int64(len(r.posts)) {
		return nil
	}
	return r.posts[id-1]
}

// collect copies the posts accepted by keep (all posts when keep is nil)
// and sorts them newest first.
func (r *Repository) collect(keep func(*simplefeed.Post) bool) []*simplefeed.Post {
	result := make([]*simplefeed.Post, 0)
	for _, p := range r.posts {
		if keep == nil || keep(p) {
			result = append(result, p.Clone())
		}
	}

	// Sort by created_at descending, then id descending
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func paginate(posts []*simplefeed.Post, limit, offset int) []*simplefeed.Post {
	if limit <= 0 {
		limit = simplefeed.DefaultLimit
	}
	if offset < 0 {
		offset = simplefeed.DefaultOffset
	}
	if offset >= len(posts) {
		return []*simplefeed.Post{}
	}
	end := offset + limit
	if end > len(posts) || end < offset {
		end = len(posts)
	}
	return posts[offset:end]
}

func matchesQuery(p *simplefeed.Post, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	if p.Author != nil && strings.Contains(strings.ToLower(*p.Author), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
