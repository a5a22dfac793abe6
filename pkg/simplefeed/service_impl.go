package simplefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// service implements the Service interface
type service struct {
	repository Repository
	publisher  Publisher
	hooks      Hooks
	logger     *slog.Logger

	// pipelineMu spans the store and the publish so events leave in id order.
	pipelineMu sync.Mutex
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithPublisher sets where new posts are announced
func WithPublisher(p Publisher) Option {
	return func(s *service) {
		s.publisher = p
	}
}

// WithHooks appends lifecycle hooks
func WithHooks(h Hooks) Option {
	return func(s *service) {
		s.hooks.BeforePostCreate = append(s.hooks.BeforePostCreate, h.BeforePostCreate...)
		s.hooks.AfterPostCreate = append(s.hooks.AfterPostCreate, h.AfterPostCreate...)
		s.hooks.OnError = append(s.hooks.OnError, h.OnError...)
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.publisher == nil {
		s.publisher = NewNoopPublisher()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if err := s.hooks.executeBeforePostCreate(ctx, &req); err != nil {
		s.hooks.executeOnError(ctx, "before_post_create", err)
		return nil, err
	}

	post, err := s.storeAndPublish(ctx, req)
	if err != nil {
		s.hooks.executeOnError(ctx, "create_post", err)
		return nil, &PostError{Op: "create", Err: err}
	}

	s.hooks.executeAfterPostCreate(ctx, post)

	return post, nil
}

// storeAndPublish writes the post and announces it under one lock. Publish
// only enqueues per subscriber, so the critical section stays short.
func (s *service) storeAndPublish(ctx context.Context, req CreatePostRequest) (*Post, error) {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()

	post, err := s.repository.CreatePost(ctx, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, NewPostEvent{Post: post.Clone()})
	return post, nil
}

// publish hands the event to the publisher. A panicking publisher must not
// take the creation down with it.
func (s *service) publish(ctx context.Context, event Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Publisher panicked", "event", event.Kind(), "panic", r)
		}
	}()
	s.publisher.Publish(ctx, event)
}

func (s *service) GetPost(ctx context.Context, id int64) (*Post, error) {
	if err := s.repository.IncrementViewCount(ctx, id); err != nil {
		return nil, &PostError{PostID: id, Op: "increment_view_count", Err: err}
	}

	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrPostNotFound) {
			s.hooks.executeOnError(ctx, "get_post", err)
		}
		return nil, &PostError{PostID: id, Op: "get", Err: err}
	}
	return post, nil
}

func (s *service) ListPosts(ctx context.Context, req ListPostsRequest) ([]*Post, error) {
	q := ResolveQuery(req)
	s.logger.Debug("Resolved post query", "kind", q.Kind.String())

	posts, err := q.Run(ctx, s.repository)
	if err != nil {
		s.hooks.executeOnError(ctx, "list_posts", err)
		return nil, fmt.Errorf("list posts (%s): %w", q.Kind, err)
	}
	return posts, nil
}

func (s *service) GetStats(ctx context.Context) (*Stats, error) {
	posts, err := s.repository.AllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts for stats: %w", err)
	}
	return ComputeStats(posts), nil
}
