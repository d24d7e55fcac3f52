// Package discovery finds the workspace documents a digest should cover.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"digest-backend/pkg/fallback"
	"digest-backend/pkg/notion"

	"go.uber.org/zap"
)

// Mode tells the summarizer how the candidate set was obtained.
type Mode string

const (
	ModeNormal             Mode = "normal"
	ModeExtendedWindow     Mode = "extended-window"
	ModeMostRecentFallback Mode = "most-recent-fallback"
)

const (
	// DefaultWindowDays applies when the schedule sets no window.
	DefaultWindowDays = 14
	// ExtendedWindowDays is the widened window tried when the configured
	// one is empty.
	ExtendedWindowDays = 30
	// MostRecentFallbackCount is how many documents are taken regardless of
	// date when both windows are empty.
	MostRecentFallbackCount = 5
	// DefaultPageSize bounds the workspace listing.
	DefaultPageSize = 20
	// BlockTreeDepth limits how deep nested children are fetched.
	BlockTreeDepth = 3
)

// Workspace is the subset of the workspace client discovery needs.
type Workspace interface {
	SearchRecentPages(ctx context.Context, token string, pageSize int) ([]notion.Page, error)
	BlockTree(ctx context.Context, token, blockID string, maxDepth int) ([]notion.Block, error)
}

// Result is the candidate set for one run.
type Result struct {
	Pages      []notion.Page
	WindowDays int
	Mode       Mode
	// NoContent is set when the workspace has no documents at all.
	NoContent bool
}

// Discovery lists and hydrates candidate documents.
type Discovery struct {
	workspace  Workspace
	pageSize   int
	fetchDelay time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// New creates a Discovery. fetchDelay separates successive block-tree
// fetches to stay under the API's per-second rate limit.
func New(workspace Workspace, pageSize int, fetchDelay time.Duration, log *zap.Logger) *Discovery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Discovery{
		workspace:  workspace,
		pageSize:   pageSize,
		fetchDelay: fetchDelay,
		now:        time.Now,
		log:        log.Named("discovery"),
	}
}

// WithClock overrides the time source, for tests.
func (d *Discovery) WithClock(now func() time.Time) *Discovery {
	d.now = now
	return d
}

type candidates struct {
	pages      []notion.Page
	windowDays int
	mode       Mode
}

// Discover returns recent documents with their block trees. Credential and
// upstream errors are returned as-is; an empty workspace is not an error.
func (d *Discovery) Discover(ctx context.Context, token string, windowDays int) (*Result, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	listing, err := d.workspace.SearchRecentPages(ctx, token, d.pageSize)
	if err != nil {
		if cerr := d.credentialError(err); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to list workspace documents: %w", err)
	}
	if len(listing) > d.pageSize {
		listing = listing[:d.pageSize]
	}

	now := d.now()
	strategies := []fallback.Strategy[candidates]{
		d.windowStrategy(listing, now, windowDays, ModeNormal),
	}
	if windowDays < ExtendedWindowDays {
		strategies = append(strategies, d.windowStrategy(listing, now, ExtendedWindowDays, ModeExtendedWindow))
	}
	strategies = append(strategies, fallback.Strategy[candidates]{
		Name: string(ModeMostRecentFallback),
		Run: func(ctx context.Context) (candidates, error) {
			n := MostRecentFallbackCount
			if n > len(listing) {
				n = len(listing)
			}
			return candidates{pages: listing[:n], windowDays: 0, mode: ModeMostRecentFallback}, nil
		},
	})

	res, err := fallback.TryInOrder(ctx, strategies, func(c candidates) bool { return len(c.pages) > 0 })
	if err != nil {
		if errors.Is(err, fallback.ErrExhausted) {
			d.log.Info("Workspace has no documents")
			return &Result{WindowDays: windowDays, Mode: ModeMostRecentFallback, NoContent: true}, nil
		}
		return nil, err
	}

	found := res.Value
	if found.mode != ModeNormal {
		d.log.Info("Widened content window",
			zap.Int("configured_days", windowDays),
			zap.String("mode", string(found.mode)),
			zap.Int("documents", len(found.pages)))
	}

	pages, err := d.hydrate(ctx, token, found.pages)
	if err != nil {
		return nil, err
	}

	return &Result{Pages: pages, WindowDays: found.windowDays, Mode: found.mode}, nil
}

func (d *Discovery) windowStrategy(listing []notion.Page, now time.Time, days int, mode Mode) fallback.Strategy[candidates] {
	return fallback.Strategy[candidates]{
		Name: fmt.Sprintf("%s(%dd)", mode, days),
		Run: func(ctx context.Context) (candidates, error) {
			return candidates{pages: withinWindow(listing, now, days), windowDays: days, mode: mode}, nil
		},
	}
}

// withinWindow keeps pages edited or created in [now-days, now].
func withinWindow(pages []notion.Page, now time.Time, days int) []notion.Page {
	since := now.AddDate(0, 0, -days)
	inRange := func(t time.Time) bool {
		return !t.IsZero() && !t.Before(since) && !t.After(now)
	}

	var out []notion.Page
	for _, p := range pages {
		if inRange(p.LastEditedTime) || inRange(p.CreatedTime) {
			out = append(out, p)
		}
	}
	return out
}

// hydrate fetches block trees one document at a time. Documents deleted
// since the listing are skipped; any other failure aborts discovery.
func (d *Discovery) hydrate(ctx context.Context, token string, pages []notion.Page) ([]notion.Page, error) {
	out := make([]notion.Page, 0, len(pages))
	for i, page := range pages {
		if i > 0 && d.fetchDelay > 0 {
			if err := sleep(ctx, d.fetchDelay); err != nil {
				return nil, err
			}
		}

		blocks, err := d.workspace.BlockTree(ctx, token, page.ID, BlockTreeDepth)
		if err != nil {
			var apiErr *notion.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				d.log.Warn("Document disappeared before fetch", zap.String("page_id", page.ID))
				continue
			}
			if cerr := d.credentialError(err); cerr != nil {
				return nil, cerr
			}
			return nil, fmt.Errorf("failed to fetch content of %q: %w", page.Title, err)
		}
		page.Blocks = blocks
		out = append(out, page)
	}
	return out, nil
}

// credentialError maps a rejected token to a configuration error naming the
// fix; it returns nil for any other failure.
func (d *Discovery) credentialError(err error) error {
	if !errors.Is(err, notion.ErrUnauthorized) {
		return nil
	}
	d.log.Warn("Workspace credential rejected", zap.Error(err))
	return fmt.Errorf("%w: reconnect the workspace integration", notion.ErrUnauthorized)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
