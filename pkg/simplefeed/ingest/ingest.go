// Package ingest polls RSS/Atom feeds and turns new items into posts.
package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// PostCreator is the part of simplefeed.Service the importer needs.
type PostCreator interface {
	CreatePost(ctx context.Context, req simplefeed.CreatePostRequest) (*simplefeed.Post, error)
}

const maxFeedBytes = 5 * 1024 * 1024

// Config describes what to import
type Config struct {
	URLs     []string
	PostType simplefeed.PostType
}

// Importer fetches feeds and creates one post per unseen item.
type Importer struct {
	client  HTTPClient
	creator PostCreator
	cfg     Config
	parser  *gofeed.Parser
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// New creates an Importer. A nil client uses http.DefaultClient.
func New(client HTTPClient, creator PostCreator, cfg Config, logger *slog.Logger) *Importer {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.PostType.IsValid() {
		cfg.PostType = simplefeed.PostTypeTimeline
	}
	return &Importer{
		client:  client,
		creator: creator,
		cfg:     cfg,
		parser:  gofeed.NewParser(),
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Run polls once immediately and then every interval until ctx is done.
func (im *Importer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := im.Poll(ctx); err != nil {
			im.logger.Warn("Feed poll finished with errors", "created", n, "error", err)
		} else {
			im.logger.Info("Feed poll finished", "created", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll imports every configured feed once and returns the number of posts
// created. A failing feed is reported in the joined error and does not stop
// the others.
func (im *Importer) Poll(ctx context.Context) (int, error) {
	var (
		created int
		errs    []error
	)
	for _, url := range im.cfg.URLs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		n, err := im.importFeed(ctx, url)
		created += n
		if err != nil {
			im.logger.Warn("Feed import failed", "url", url, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
		}
	}
	return created, errors.Join(errs...)
}

func (im *Importer) importFeed(ctx context.Context, url string) (int, error) {
	feed, err := im.fetch(ctx, url)
	if err != nil {
		return 0, err
	}

	items := append([]*gofeed.Item(nil), feed.Items...)
	sortOldestFirst(items)

	created := 0
	for _, item := range items {
		guid := ItemGUID(item)
		if !im.markSeen(guid) {
			continue
		}

		draft := ToDraft(feed, item, im.cfg.PostType)
		if err := simplefeed.ValidateCreatePostRequest(draft); err != nil {
			im.logger.Debug("Skipping feed item", "url", url, "guid", guid, "error", err)
			continue
		}

		if _, err := im.creator.CreatePost(ctx, draft); err != nil {
			im.forget(guid)
			return created, fmt.Errorf("create post for %s: %w", guid, err)
		}
		created++
	}
	return created, nil
}

// fetch downloads and parses one feed.
func (im *Importer) fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "simple-feed/1.0")

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	feed, err := im.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func (im *Importer) markSeen(guid string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, ok := im.seen[guid]; ok {
		return false
	}
	im.seen[guid] = struct{}{}
	return true
}

func (im *Importer) forget(guid string) {
	im.mu.Lock()
	defer im.mu.Unlock()

	delete(im.seen, guid)
}

// ItemGUID returns the GUID for a feed item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}

// ToDraft maps a feed item onto a post draft.
func ToDraft(feed *gofeed.Feed, item *gofeed.Item, postType simplefeed.PostType) simplefeed.CreatePostRequest {
	content := plainText(item.Description)
	if content == "" {
		content = plainText(item.Content)
	}

	draft := simplefeed.CreatePostRequest{
		Title:      strings.TrimSpace(item.Title),
		Content:    content,
		Type:       postType,
		IsBreaking: simplefeed.BoolPtr(postType == simplefeed.PostTypeBreaking),
	}
	if feed != nil {
		draft.Source = simplefeed.StringPtr(strings.TrimSpace(feed.Title))
	}
	if item.Author != nil {
		draft.Author = simplefeed.StringPtr(strings.TrimSpace(item.Author.Name))
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		draft.Author = simplefeed.StringPtr(strings.TrimSpace(item.Authors[0].Name))
	}
	if len(item.Categories) > 0 {
		draft.Tags = append([]string(nil), item.Categories...)
	}
	return draft
}

// sortOldestFirst orders items by publish date when every item has one.
// Otherwise the feed order, which is newest first by convention, is reversed.
func sortOldestFirst(items []*gofeed.Item) {
	for _, item := range items {
		if item.PublishedParsed == nil {
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
			return
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedParsed.Before(*items[j].PublishedParsed)
	})
}

// plainText extracts the text of an HTML fragment and collapses whitespace.
func plainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := s
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}
