package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

func testSets() []domain.CardSet {
	return []domain.CardSet{
		{ID: "sv3", Name: "Obsidian Flames", Series: "Scarlet & Violet"},
		{ID: "sv2", Name: "Paldea Evolved", Series: "Scarlet & Violet"},
		{ID: "sv1", Name: "Scarlet & Violet", Series: "Scarlet & Violet"},
		{ID: "sv4pt5", Name: "Paldean Fates", Series: "Scarlet & Violet"},
	}
}

func newTestCatalog(t *testing.T, client SetClient) *CatalogService {
	t.Helper()
	c, err := NewCatalogService(client, 16, time.Hour, discardLogger())
	require.NoError(t, err)
	return c
}

func TestCatalog_FindSet(t *testing.T) {
	cases := []struct {
		name string
		term string
		want string
	}{
		{"exact case-insensitive", "obsidian flames", "sv3"},
		{"set id", "SV2", "sv2"},
		{"product name contains set", "Obsidian Flames Booster Box", "sv3"},
		{"term inside set name", "Paldea", "sv2"},
		{"longest contained name", "Paldean Fates Elite Trainer Box", "sv4pt5"},
		{"fuzzy", "Obsdn Flms", "sv3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCatalog(t, &fakeSetClient{sets: testSets()})
			set, err := c.FindSet(context.Background(), tc.term)
			require.NoError(t, err)
			assert.Equal(t, tc.want, set.ID)
		})
	}
}

func TestCatalog_FindSetNotFound(t *testing.T) {
	c := newTestCatalog(t, &fakeSetClient{sets: testSets()})

	_, err := c.FindSet(context.Background(), "qqqq")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.FindSet(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCatalog_ListSetsCached(t *testing.T) {
	client := &fakeSetClient{sets: testSets()}
	c := newTestCatalog(t, client)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	sets, err := c.ListSets(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, sets, 2)

	_, err = c.ListSets(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, client.listHits)

	now = now.Add(2 * time.Hour)
	all, err := c.ListSets(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, 2, client.listHits)
}

func TestCatalog_SourceDownIsNotFound(t *testing.T) {
	c := newTestCatalog(t, &fakeSetClient{err: domain.ErrSourceUnavailable})
	ctx := context.Background()

	_, err := c.FindSet(ctx, "Obsidian Flames")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.GetSet(ctx, "sv3")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.ListSets(ctx, 10)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestCatalog_GetSet(t *testing.T) {
	c := newTestCatalog(t, &fakeSetClient{sets: testSets()})

	set, err := c.GetSet(context.Background(), "sv1")
	require.NoError(t, err)
	assert.Equal(t, "Scarlet & Violet", set.Name)

	_, err = c.GetSet(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
