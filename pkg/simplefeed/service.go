package simplefeed

import (
	"context"
)

// Service defines the main interface of the feed
type Service interface {
	// CreatePost stores the draft and publishes a NEW_POST event.
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	// GetPost counts a view and returns the post with the updated count.
	GetPost(ctx context.Context, id int64) (*Post, error)
	// ListPosts resolves req with ResolveQuery and runs the single resulting query.
	ListPosts(ctx context.Context, req ListPostsRequest) ([]*Post, error)
	GetStats(ctx context.Context) (*Stats, error)
}
