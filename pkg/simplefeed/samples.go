package simplefeed

// SamplePosts returns the drafts loaded when sample seeding is enabled.
// They cover every post type so a fresh feed has something to filter.
func SamplePosts() []CreatePostRequest {
	return []CreatePostRequest{
		{
			Title:      "Port Authority Halts Night Shipments After Crane Failure",
			Content:    "All overnight container traffic at the northern terminal is suspended while engineers inspect a collapsed gantry crane. No injuries were reported.",
			Type:       PostTypeBreaking,
			Source:     StringPtr("Harbor Desk"),
			Author:     StringPtr("Night Editor"),
			Tags:       []string{"Shipping", "infrastructure", "ports"},
			IsBreaking: BoolPtr(true),
		},
		{
			Title:      "Why Regional Grids Struggle With Summer Peaks",
			Content:    "Demand records were broken three times this month. This analysis looks at transmission bottlenecks and the slow pace of storage deployment.",
			Type:       PostTypeAnalysis,
			Source:     StringPtr("Energy Review"),
			Author:     StringPtr("Dr. Lena Ortiz"),
			Tags:       []string{"energy", "grid", "climate"},
			IsBreaking: BoolPtr(false),
		},
		{
			Title:   "\"We will publish every dataset we collect\"",
			Content: "The statistics office director pledged full release of the household survey microdata by the end of the quarter.",
			Type:    PostTypeQuote,
			Source:  StringPtr("Press Briefing"),
			Author:  StringPtr("Statistics Office Director"),
			Tags:    []string{"open data", "transparency"},
		},
		{
			Title:   "Flood Response: Key Events of the Past 72 Hours",
			Content: "From the first river gauge warning to the reopening of the ring road, this timeline tracks the emergency response hour by hour.",
			Type:    PostTypeTimeline,
			Source:  StringPtr("City Desk"),
			Author:  StringPtr("Metro Team"),
			Tags:    []string{"floods", "emergency", "timeline"},
		},
		{
			Title:      "Rail Strike Called Off Minutes Before Deadline",
			Content:    "Union negotiators accepted a revised offer shortly before midnight. Commuter services will run on the normal timetable tomorrow.",
			Type:       PostTypeBreaking,
			Source:     StringPtr("Wire Service"),
			Tags:       []string{"transport", "labor"},
			IsBreaking: BoolPtr(true),
		},
		{
			Title:   "What the New Data Protection Rules Mean for Small Shops",
			Content: "Compliance costs fall unevenly. We break down the obligations that apply below the fifty-employee threshold.",
			Type:    PostTypeAnalysis,
			Source:  StringPtr("Business Weekly"),
			Author:  StringPtr("Priya Raman"),
			Tags:    []string{"privacy", "regulation", "small business"},
		},
		{
			Title:   "\"The bridge will reopen before the school year\"",
			Content: "The transport minister repeated the repair timeline during a site visit, citing faster than expected steel deliveries.",
			Type:    PostTypeQuote,
			Source:  StringPtr("Wire Service"),
			Author:  StringPtr("Transport Minister"),
			Tags:    []string{"transport", "infrastructure"},
		},
		{
			Title:   "Ten Years of the Coastal Restoration Program",
			Content: "A decade of dune rebuilding, wetland purchases and seawall upgrades, summarized year by year.",
			Type:    PostTypeTimeline,
			Source:  StringPtr("Environment Desk"),
			Tags:    []string{"coast", "environment", "timeline"},
		},
	}
}
