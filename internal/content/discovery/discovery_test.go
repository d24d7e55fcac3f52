package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"digest-backend/pkg/notion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)

type fakeWorkspace struct {
	pages      []notion.Page
	listErr    error
	treeErr    map[string]error
	fetched    []string
	pageSizeIn int
}

func (f *fakeWorkspace) SearchRecentPages(ctx context.Context, token string, pageSize int) ([]notion.Page, error) {
	f.pageSizeIn = pageSize
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pages, nil
}

func (f *fakeWorkspace) BlockTree(ctx context.Context, token, blockID string, maxDepth int) ([]notion.Block, error) {
	f.fetched = append(f.fetched, blockID)
	if err := f.treeErr[blockID]; err != nil {
		return nil, err
	}
	return []notion.Block{{Kind: notion.KindParagraph, Text: []notion.RichText{{PlainText: "body of " + blockID}}}}, nil
}

func page(id string, editedDaysAgo int) notion.Page {
	return notion.Page{
		ID:             id,
		Title:          "Doc " + id,
		CreatedTime:    now.AddDate(0, 0, -400),
		LastEditedTime: now.AddDate(0, 0, -editedDaysAgo),
	}
}

func newDiscovery(ws Workspace, pageSize int) *Discovery {
	return New(ws, pageSize, 0, zap.NewNop()).WithClock(func() time.Time { return now })
}

func TestDiscover_ConfiguredWindow(t *testing.T) {
	ws := &fakeWorkspace{pages: []notion.Page{page("a", 0), page("b", 2), page("c", 20)}}

	res, err := newDiscovery(ws, 10).Discover(context.Background(), "tok", 7)
	require.NoError(t, err)
	assert.Equal(t, ModeNormal, res.Mode)
	assert.Equal(t, 7, res.WindowDays)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, []string{"a", "b"}, ws.fetched)
	assert.NotEmpty(t, res.Pages[0].Blocks)
	assert.Equal(t, 10, ws.pageSizeIn)
}

func TestDiscover_WidensOnlyWhenEmpty(t *testing.T) {
	ws := &fakeWorkspace{pages: []notion.Page{page("a", 10), page("b", 25), page("c", 90)}}

	res, err := newDiscovery(ws, 10).Discover(context.Background(), "tok", 3)
	require.NoError(t, err)
	assert.Equal(t, ModeExtendedWindow, res.Mode)
	assert.Equal(t, ExtendedWindowDays, res.WindowDays)
	assert.Len(t, res.Pages, 2)
}

func TestDiscover_CreatedInWindowCounts(t *testing.T) {
	p := page("new", 100)
	p.CreatedTime = now.Add(-time.Hour)
	ws := &fakeWorkspace{pages: []notion.Page{p}}

	res, err := newDiscovery(ws, 10).Discover(context.Background(), "tok", 1)
	require.NoError(t, err)
	assert.Equal(t, ModeNormal, res.Mode)
	assert.Len(t, res.Pages, 1)
}

func TestDiscover_MostRecentFallback(t *testing.T) {
	var pages []notion.Page
	for i := 0; i < 8; i++ {
		pages = append(pages, page(string(rune('a'+i)), 60+i))
	}
	ws := &fakeWorkspace{pages: pages}

	res, err := newDiscovery(ws, 10).Discover(context.Background(), "tok", 14)
	require.NoError(t, err)
	assert.Equal(t, ModeMostRecentFallback, res.Mode)
	assert.Len(t, res.Pages, MostRecentFallbackCount)
	assert.Equal(t, "a", res.Pages[0].ID)
}

func TestDiscover_NeverExceedsPageSize(t *testing.T) {
	var pages []notion.Page
	for i := 0; i < 30; i++ {
		pages = append(pages, page(string(rune('A'+i)), 0))
	}
	ws := &fakeWorkspace{pages: pages}

	res, err := newDiscovery(ws, 4).Discover(context.Background(), "tok", 14)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Pages), 4)
}

func TestDiscover_EmptyWorkspace(t *testing.T) {
	res, err := newDiscovery(&fakeWorkspace{}, 10).Discover(context.Background(), "tok", 14)
	require.NoError(t, err)
	assert.True(t, res.NoContent)
	assert.Empty(t, res.Pages)
}

func TestDiscover_UpstreamErrorsPropagate(t *testing.T) {
	unauthorized := &notion.APIError{StatusCode: 401, Code: "unauthorized", Message: "API token is invalid."}
	_, err := newDiscovery(&fakeWorkspace{listErr: unauthorized}, 10).Discover(context.Background(), "tok", 14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, notion.ErrUnauthorized))

	ws := &fakeWorkspace{
		pages:   []notion.Page{page("a", 0)},
		treeErr: map[string]error{"a": &notion.APIError{StatusCode: 502, Message: "bad gateway"}},
	}
	_, err = newDiscovery(ws, 10).Discover(context.Background(), "tok", 14)
	assert.ErrorContains(t, err, "bad gateway")
}

func TestDiscover_RejectedCredentialIsConfigurationError(t *testing.T) {
	unauthorized := &notion.APIError{StatusCode: 401, Code: "unauthorized", Message: "API token is invalid."}

	_, err := newDiscovery(&fakeWorkspace{listErr: unauthorized}, 10).Discover(context.Background(), "tok", 14)
	require.ErrorIs(t, err, notion.ErrUnauthorized)
	assert.EqualError(t, err, "workspace credential rejected: reconnect the workspace integration")

	ws := &fakeWorkspace{
		pages:   []notion.Page{page("a", 0)},
		treeErr: map[string]error{"a": unauthorized},
	}
	_, err = newDiscovery(ws, 10).Discover(context.Background(), "tok", 14)
	require.ErrorIs(t, err, notion.ErrUnauthorized)
	assert.EqualError(t, err, "workspace credential rejected: reconnect the workspace integration")
}

func TestDiscover_SkipsDeletedDocuments(t *testing.T) {
	ws := &fakeWorkspace{
		pages:   []notion.Page{page("a", 0), page("gone", 0)},
		treeErr: map[string]error{"gone": &notion.APIError{StatusCode: 404, Code: "object_not_found"}},
	}
	res, err := newDiscovery(ws, 10).Discover(context.Background(), "tok", 14)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "a", res.Pages[0].ID)
}

func TestDiscover_DelayBetweenFetches(t *testing.T) {
	ws := &fakeWorkspace{pages: []notion.Page{page("a", 0), page("b", 0), page("c", 0)}}
	d := New(ws, 10, 20*time.Millisecond, zap.NewNop()).WithClock(func() time.Time { return now })

	start := time.Now()
	_, err := d.Discover(context.Background(), "tok", 14)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
