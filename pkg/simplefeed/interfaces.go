package simplefeed

import (
	"context"
	"time"
)

// Repository defines the storage contract for posts
type Repository interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	GetPost(ctx context.Context, id int64) (*Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]*Post, error)
	ListPostsByType(ctx context.Context, postType PostType, limit, offset int) ([]*Post, error)
	SearchPosts(ctx context.Context, query string) ([]*Post, error)
	ListPostsByDateRange(ctx context.Context, start, end time.Time) ([]*Post, error)
	// IncrementViewCount adds one view. A missing id is ignored.
	IncrementViewCount(ctx context.Context, id int64) error
	// AllPosts returns every post, newest first.
	AllPosts(ctx context.Context) ([]*Post, error)
}

// Publisher delivers events to live subscribers. Publish never reports
// delivery failures; it is best-effort by contract.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}
