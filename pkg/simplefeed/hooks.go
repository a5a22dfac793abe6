package simplefeed

import (
	"context"
)

// Hooks extend the creation pipeline without modifying the service.
type Hooks struct {
	// BeforePostCreate runs before the repository write. Returning an error
	// aborts the creation.
	BeforePostCreate []BeforePostCreateHook
	// AfterPostCreate runs after the post has been stored and published.
	// Errors are reported to OnError and never fail the creation.
	AfterPostCreate []AfterPostCreateHook

	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{}
	StopChain bool // set to true to skip the remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforePostCreateHook may modify the draft in place.
type BeforePostCreateHook func(hctx *HookContext, req *CreatePostRequest) error

// AfterPostCreateHook receives a copy of the stored post.
type AfterPostCreateHook func(hctx *HookContext, post *Post) error

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, operation string, err error)

func (h *Hooks) executeBeforePostCreate(ctx context.Context, req *CreatePostRequest) error {
	if len(h.BeforePostCreate) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforePostCreate {
		if err := hook(hctx, req); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterPostCreate(ctx context.Context, post *Post) {
	if len(h.AfterPostCreate) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterPostCreate {
		if err := hook(hctx, post.Clone()); err != nil {
			h.executeOnError(ctx, "after_post_create", err)
		}
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
	}
}
