// Package simplefeed provides a live news feed: an in-memory post repository,
// a query coordinator that maps a filter specification onto a single
// repository query, and a creation pipeline that publishes every new post to
// connected viewers.
//
// The Service interface is the entry point. Repository and Publisher
// implementations live in subpackages (repo/memory and bus).
//
// Query Precedence
//
// ListPosts does not combine filters. A non-empty search wins over a date
// range, a date range wins over a type filter, and the type filter wins over
// the plain paginated listing. See ResolveQuery.
package simplefeed
