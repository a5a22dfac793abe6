package simplefeed

import (
	"context"
	"fmt"
	"time"
)

// QueryKind names the single repository query a filter resolves to.
type QueryKind int

const (
	QueryAll QueryKind = iota
	QueryByType
	QueryDateRange
	QuerySearch
)

func (k QueryKind) String() string {
	switch k {
	case QueryAll:
		return "all"
	case QueryByType:
		return "by_type"
	case QueryDateRange:
		return "date_range"
	case QuerySearch:
		return "search"
	}
	return fmt.Sprintf("QueryKind(%d)", int(k))
}

// Query is a resolved filter. Only the fields relevant to Kind are set.
type Query struct {
	Kind   QueryKind
	Search string
	Type   PostType
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

// ResolveQuery picks exactly one query for req. The first matching rule wins:
//
//  1. non-empty Search
//  2. both StartDate and EndDate set
//  3. Type set and not "all"
//  4. everything, paginated
//
// Filters are never combined. A search together with a type filter ignores
// the type; this mirrors the product's behavior and is a known limitation.
func ResolveQuery(req ListPostsRequest) Query {
	if req.Search != "" {
		return Query{Kind: QuerySearch, Search: req.Search}
	}
	if req.StartDate != nil && req.EndDate != nil {
		return Query{Kind: QueryDateRange, Start: *req.StartDate, End: *req.EndDate}
	}

	limit, offset := normalizePage(req.Limit, req.Offset)
	if req.Type != "" && req.Type != TypeAll {
		return Query{Kind: QueryByType, Type: PostType(req.Type), Limit: limit, Offset: offset}
	}
	return Query{Kind: QueryAll, Limit: limit, Offset: offset}
}

// Run executes the query against repo.
func (q Query) Run(ctx context.Context, repo Repository) ([]*Post, error) {
	switch q.Kind {
	case QuerySearch:
		return repo.SearchPosts(ctx, q.Search)
	case QueryDateRange:
		return repo.ListPostsByDateRange(ctx, q.Start, q.End)
	case QueryByType:
		return repo.ListPostsByType(ctx, q.Type, q.Limit, q.Offset)
	case QueryAll:
		return repo.ListPosts(ctx, q.Limit, q.Offset)
	}
	return nil, fmt.Errorf("unsupported query kind %v", q.Kind)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = DefaultOffset
	}
	return limit, offset
}
