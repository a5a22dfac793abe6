package simplefeed

import (
	"time"
)

// PostType is the kind of a feed item
type PostType string

const (
	PostTypeBreaking PostType = "breaking"
	PostTypeAnalysis PostType = "analysis"
	PostTypeQuote    PostType = "quote"
	PostTypeTimeline PostType = "timeline"
)

// TypeAll is the list filter value that disables type filtering.
const TypeAll = "all"

// Pagination defaults applied when a caller leaves limit/offset unset.
const (
	DefaultLimit  = 50
	DefaultOffset = 0
)

// PostTypes returns all valid post types in display order.
func PostTypes() []PostType {
	return []PostType{PostTypeBreaking, PostTypeAnalysis, PostTypeQuote, PostTypeTimeline}
}

// IsValid reports whether t is one of the known post types.
func (t PostType) IsValid() bool {
	switch t {
	case PostTypeBreaking, PostTypeAnalysis, PostTypeQuote, PostTypeTimeline:
		return true
	}
	return false
}

func (t PostType) String() string {
	return string(t)
}

// Post is a stored feed item
type Post struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Type       PostType  `json:"type"`
	Source     *string   `json:"source"`
	Author     *string   `json:"author"`
	Tags       []string  `json:"tags"`
	IsBreaking bool      `json:"isBreaking"`
	ViewCount  int64     `json:"viewCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	if p.Source != nil {
		s := *p.Source
		c.Source = &s
	}
	if p.Author != nil {
		a := *p.Author
		c.Author = &a
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	return &c
}

// CreatePostRequest is the draft of a new post, before id and timestamp are assigned.
type CreatePostRequest struct {
	Title      string
	Content    string
	Type       PostType
	Source     *string
	Author     *string
	Tags       []string
	IsBreaking *bool
}

// ListPostsRequest is a filter specification for ListPosts.
type ListPostsRequest struct {
	Type      string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Stats are feed-wide aggregates computed on demand.
type Stats struct {
	TotalPosts       int        `json:"totalPosts"`
	BreakingNews     int        `json:"breakingNews"`
	TotalViews       int64      `json:"totalViews"`
	SourcesMonitored int        `json:"sourcesMonitored"`
	LastUpdate       *time.Time `json:"lastUpdate"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
