package simplefeed

// ComputeStats derives feed aggregates from posts sorted newest first.
func ComputeStats(posts []*Post) *Stats {
	stats := &Stats{TotalPosts: len(posts)}
	sources := make(map[string]struct{})

	for _, p := range posts {
		if p.IsBreaking {
			stats.BreakingNews++
		}
		stats.TotalViews += p.ViewCount
		if p.Source != nil && *p.Source != "" {
			sources[*p.Source] = struct{}{}
		}
		if stats.LastUpdate == nil || p.CreatedAt.After(*stats.LastUpdate) {
			t := p.CreatedAt
			stats.LastUpdate = &t
		}
	}
	stats.SourcesMonitored = len(sources)

	return stats
}
