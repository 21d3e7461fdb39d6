package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileCatalogComposition(t *testing.T) {
	catalog := NewTileCatalog()
	require.Equal(t, 36, catalog.Len())

	wantCounts := map[TileCategory]int{
		CategoryPalace:      4,
		CategoryGovernment:  6,
		CategoryReligious:   6,
		CategoryCommercial:  8,
		CategoryResidential: 8,
		CategoryGate:        4,
	}
	for category, want := range wantCounts {
		assert.Len(t, catalog.ByCategory(category), want, "category %s", category)
	}

	seen := make(map[string]bool)
	for _, def := range catalog.All() {
		assert.False(t, seen[def.TileID], "duplicate tile id %s", def.TileID)
		seen[def.TileID] = true
		assert.Equal(t, def.Category, categoryOfTile(def.TileID),
			"tile id prefix must match category for %s", def.TileID)
		assert.NotEmpty(t, def.NameKo)
		assert.NotEmpty(t, def.NameEn)
	}
}

func TestTileCatalogGet(t *testing.T) {
	catalog := NewTileCatalog()

	def, err := catalog.Get("palace_1")
	require.NoError(t, err)
	assert.Equal(t, "Gyeongbokgung", def.NameEn)
	assert.Equal(t, Resources{Wood: 3, Stone: 3, Tile: 2, Ink: 1}, def.Cost)
	assert.Equal(t, 8, def.BasePoints)
	assert.Equal(t, 4, def.FengshuiBonus)
	assert.Equal(t, 2, def.AdjacencyBonus[CategoryGovernment])
	assert.Equal(t, 2, def.WorkerSlots)

	_, err = catalog.Get("pagoda_9")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestTileWorkerSlots(t *testing.T) {
	catalog := NewTileCatalog()

	for _, def := range catalog.All() {
		if def.Category == CategoryGate {
			assert.Equal(t, 1, def.WorkerSlots, "gate %s holds one apprentice", def.TileID)
		} else {
			assert.Equal(t, 2, def.WorkerSlots, "tile %s holds two apprentices", def.TileID)
		}
	}
}

func TestProducedResource(t *testing.T) {
	cases := []struct {
		category TileCategory
		resource ResourceType
		produces bool
	}{
		{CategoryGovernment, ResourceInk, true},
		{CategoryReligious, ResourceTile, true},
		{CategoryCommercial, ResourceStone, true},
		{CategoryResidential, ResourceWood, true},
		{CategoryPalace, "", false},
		{CategoryGate, "", false},
	}
	for _, tc := range cases {
		resource, produces := ProducedResource(tc.category)
		assert.Equal(t, tc.produces, produces, "category %s", tc.category)
		assert.Equal(t, tc.resource, resource, "category %s", tc.category)
	}
}

func TestShuffledPool(t *testing.T) {
	catalog := NewTileCatalog()

	pool := catalog.ShuffledPool(rand.New(rand.NewSource(11)))
	require.Len(t, pool, 36)

	ids := make([]string, 0, 36)
	for _, def := range catalog.All() {
		ids = append(ids, def.TileID)
	}
	assert.ElementsMatch(t, ids, pool, "a shuffle keeps every tile exactly once")

	again := catalog.ShuffledPool(rand.New(rand.NewSource(11)))
	assert.Equal(t, pool, again, "the same seed draws the same order")
}
