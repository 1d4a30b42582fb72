package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu        sync.Mutex
	itemCalls int
	fail      bool
	submitted int
}

func (f *fakeRegistry) ListItems(_ context.Context) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	if f.fail {
		return nil, errors.New("registry down")
	}
	return []models.Item{{ID: 1, Title: "Lâmpadas"}, {ID: 2, Title: "Óleo de Cozinha"}}, nil
}

func (f *fakeRegistry) SubmitPoint(_ context.Context, _ *models.PointSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted++
	return nil
}

func (f *fakeRegistry) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeRegistry) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls
}

func TestItemCache_MemoizesCatalog(t *testing.T) {
	source := &fakeRegistry{}
	ic := NewItemCache(source, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		items, err := ic.ListItems(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	}

	assert.Equal(t, 1, source.calls())
}

func TestItemCache_ZeroTTLStillRemembersCatalog(t *testing.T) {
	source := &fakeRegistry{}
	ic := NewItemCache(source, 0)
	ctx := context.Background()

	_, ok := ic.CachedItems()
	assert.False(t, ok)

	_, err := ic.ListItems(ctx)
	require.NoError(t, err)
	_, err = ic.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls())

	items, ok := ic.CachedItems()
	require.True(t, ok)
	assert.Equal(t, "Óleo de Cozinha", items[1].Title)
	assert.Equal(t, 2, source.calls())
}

func TestItemCache_FailureIsNotRemembered(t *testing.T) {
	source := &fakeRegistry{fail: true}
	ic := NewItemCache(source, time.Hour)
	ctx := context.Background()

	_, err := ic.ListItems(ctx)
	require.Error(t, err)
	_, ok := ic.CachedItems()
	assert.False(t, ok)

	source.setFail(false)
	items, err := ic.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, source.calls())
}

func TestItemCache_StaleCatalogOutlivesUpstreamFailure(t *testing.T) {
	source := &fakeRegistry{}
	ic := NewItemCache(source, 0)
	ctx := context.Background()

	_, err := ic.ListItems(ctx)
	require.NoError(t, err)

	source.setFail(true)
	_, err = ic.ListItems(ctx)
	require.Error(t, err)

	items, ok := ic.CachedItems()
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestItemCache_ReturnsCopies(t *testing.T) {
	ic := NewItemCache(&fakeRegistry{}, time.Hour)
	ctx := context.Background()

	items, err := ic.ListItems(ctx)
	require.NoError(t, err)
	items[0].Title = "changed"

	again, err := ic.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lâmpadas", again[0].Title)

	snapshot, ok := ic.CachedItems()
	require.True(t, ok)
	snapshot[0].Title = "changed"
	snapshot, _ = ic.CachedItems()
	assert.Equal(t, "Lâmpadas", snapshot[0].Title)
}

func TestItemCache_SubmitPassesThrough(t *testing.T) {
	source := &fakeRegistry{}
	ic := NewItemCache(source, time.Hour)

	require.NoError(t, ic.SubmitPoint(context.Background(), &models.PointSubmission{Name: "Mercado Verde"}))

	assert.Equal(t, 1, source.submitted)
	assert.Equal(t, 0, source.calls())
}

func TestItemCache_Initialize(t *testing.T) {
	source := &fakeRegistry{}
	ic := NewItemCache(source, time.Hour)

	require.NoError(t, ic.Initialize(context.Background()))

	_, ok := ic.CachedItems()
	assert.True(t, ok)
	assert.Equal(t, 1, source.calls())
}
