package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/reactordj/catalog"
)

func sampleCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Track{
		{ID: "0", Title: "Catalog A", CreatorName: "ana", AudioURL: "https://cdn.example/0.mp3"},     //nolint:exhaustruct
		{ID: "1", Title: "Dog song", CreatorName: "bob", AudioURL: "https://cdn.example/1.mp3"},      //nolint:exhaustruct
		{ID: "2", Title: "Night Drive", CreatorName: "CATHY", AudioURL: "https://cdn.example/2.mp3"}, //nolint:exhaustruct
	})
}

func TestFilter(t *testing.T) {
	t.Parallel()

	c := sampleCatalog()

	t.Run("EmptyTextMatchesAll", func(t *testing.T) {
		t.Parallel()
		view := c.Filter("")
		assert.Len(t, view, 3)
		for i, e := range view {
			assert.Equal(t, i, e.Index)
		}
	})

	t.Run("MatchesTitleOrCreatorIgnoringCase", func(t *testing.T) {
		t.Parallel()
		view := c.Filter("cat")
		if assert.Len(t, view, 2) {
			assert.Equal(t, 0, view[0].Index)
			assert.Equal(t, "Catalog A", view[0].Track.Title)
			assert.Equal(t, 2, view[1].Index)
		}
	})

	t.Run("KeepsAbsoluteIndexes", func(t *testing.T) {
		t.Parallel()
		view := c.Filter("DOG")
		if assert.Len(t, view, 1) {
			assert.Equal(t, 1, view[0].Index)
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, c.Filter("zzz"))
	})

	t.Run("NilCatalog", func(t *testing.T) {
		t.Parallel()
		var nc *catalog.Catalog
		assert.Empty(t, nc.Filter("a"))
		assert.Zero(t, nc.Len())
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	c := sampleCatalog()

	idx, ok := c.Resolve("cat", 1)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = c.Resolve("cat", 2)
	assert.False(t, ok)

	_, ok = c.Resolve("cat", -1)
	assert.False(t, ok)
}

func TestCatalogIsImmutable(t *testing.T) {
	t.Parallel()

	tracks := []catalog.Track{{ID: "0", Title: "A", CreatorName: "a", AudioURL: "u"}} //nolint:exhaustruct
	c := catalog.New(tracks)
	tracks[0].Title = "changed"
	assert.Equal(t, "A", c.At(0).Title)

	out := c.Tracks()
	out[0].Title = "changed"
	assert.Equal(t, "A", c.At(0).Title)
}
