package game

import (
	"math/rand"
	"strings"
)

// TileCategory groups tiles for adjacency, production and blueprint
// scoring.
type TileCategory string

const (
	CategoryPalace      TileCategory = "palace"
	CategoryGovernment  TileCategory = "government"
	CategoryReligious   TileCategory = "religious"
	CategoryCommercial  TileCategory = "commercial"
	CategoryResidential TileCategory = "residential"
	CategoryGate        TileCategory = "gate"
)

// categoryOfTile extracts the category prefix from a tile id. Every
// tile id is "<category>_<n>".
func categoryOfTile(tileID string) TileCategory {
	if i := strings.IndexByte(tileID, '_'); i > 0 {
		return TileCategory(tileID[:i])
	}
	return TileCategory(tileID)
}

// Worker capacity per tile. Most tiles take two apprentices; gates take
// one. Every tile has a single official slot.
const (
	defaultApprenticeSlots = 2
	officialSlots          = 1
)

// TileDefinition is one entry of the immutable tile catalog.
type TileDefinition struct {
	TileID         string               `json:"tile_id"`
	Category       TileCategory         `json:"category"`
	NameKo         string               `json:"name_ko"`
	NameEn         string               `json:"name_en"`
	Cost           Resources            `json:"cost"`
	BasePoints     int                  `json:"base_points"`
	FengshuiBonus  int                  `json:"fengshui_bonus"`
	AdjacencyBonus map[TileCategory]int `json:"adjacency_bonus"`
	SpecialEffect  string               `json:"special_effect,omitempty"`
	WorkerSlots    int                  `json:"worker_slots"`
}

// ProducedResource maps a tile category to the material its workers
// harvest. Palaces and gates produce nothing.
func ProducedResource(category TileCategory) (ResourceType, bool) {
	switch category {
	case CategoryGovernment:
		return ResourceInk, true
	case CategoryReligious:
		return ResourceTile, true
	case CategoryCommercial:
		return ResourceStone, true
	case CategoryResidential:
		return ResourceWood, true
	}
	return "", false
}

// TileCatalog is the read-only tile lookup, built once at startup. The
// entry order is fixed so shuffles are reproducible under a seeded
// source.
type TileCatalog struct {
	byID  map[string]TileDefinition
	order []string
}

// NewTileCatalog builds the standard 36-tile catalog.
func NewTileCatalog() *TileCatalog {
	return newCatalogFrom(standardTiles())
}

func newCatalogFrom(defs []TileDefinition) *TileCatalog {
	catalog := &TileCatalog{byID: make(map[string]TileDefinition, len(defs))}
	for _, def := range defs {
		if def.WorkerSlots == 0 {
			def.WorkerSlots = defaultApprenticeSlots
		}
		catalog.byID[def.TileID] = def
		catalog.order = append(catalog.order, def.TileID)
	}
	return catalog
}

// Get looks up a definition by id.
func (c *TileCatalog) Get(tileID string) (TileDefinition, error) {
	def, ok := c.byID[tileID]
	if !ok {
		return TileDefinition{}, Errorf(KindNotFound, "unknown tile %q", tileID)
	}
	return def, nil
}

// Len is the number of catalog entries.
func (c *TileCatalog) Len() int {
	return len(c.order)
}

// All returns every definition in catalog order.
func (c *TileCatalog) All() []TileDefinition {
	defs := make([]TileDefinition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.byID[id])
	}
	return defs
}

// ByCategory returns the definitions of one category in catalog order.
func (c *TileCatalog) ByCategory(category TileCategory) []TileDefinition {
	var defs []TileDefinition
	for _, id := range c.order {
		if def := c.byID[id]; def.Category == category {
			defs = append(defs, def)
		}
	}
	return defs
}

// ShuffledPool returns all tile ids in random draw order.
func (c *TileCatalog) ShuffledPool(rng *rand.Rand) []string {
	pool := append([]string(nil), c.order...)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool
}

func standardTiles() []TileDefinition {
	return []TileDefinition{
		// Palace tiles (4), high points, high cost
		{
			TileID:         "palace_1",
			Category:       CategoryPalace,
			NameKo:         "경복궁",
			NameEn:         "Gyeongbokgung Palace",
			Cost:           Resources{Wood: 3, Stone: 3, Tile: 2, Ink: 1},
			BasePoints:     8,
			FengshuiBonus:  4,
			AdjacencyBonus: map[TileCategory]int{CategoryGovernment: 2},
			SpecialEffect:  "royal_blessing",
		},
		{
			TileID:         "palace_2",
			Category:       CategoryPalace,
			NameKo:         "창덕궁",
			NameEn:         "Changdeokgung Palace",
			Cost:           Resources{Wood: 3, Stone: 2, Tile: 2, Ink: 1},
			BasePoints:     7,
			FengshuiBonus:  4,
			AdjacencyBonus: map[TileCategory]int{CategoryReligious: 2},
			SpecialEffect:  "secret_garden",
		},
		{
			TileID:         "palace_3",
			Category:       CategoryPalace,
			NameKo:         "경희궁",
			NameEn:         "Gyeonghuigung Palace",
			Cost:           Resources{Wood: 2, Stone: 3, Tile: 2, Ink: 1},
			BasePoints:     6,
			FengshuiBonus:  3,
			AdjacencyBonus: map[TileCategory]int{CategoryPalace: 3},
		},
		{
			TileID:         "palace_4",
			Category:       CategoryPalace,
			NameKo:         "덕수궁",
			NameEn:         "Deoksugung Palace",
			Cost:           Resources{Wood: 2, Stone: 2, Tile: 2, Ink: 1},
			BasePoints:     5,
			FengshuiBonus:  3,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 2},
		},

		// Government tiles (6), moderate points, workers produce ink
		{
			TileID:         "government_1",
			Category:       CategoryGovernment,
			NameKo:         "의정부",
			NameEn:         "State Council",
			Cost:           Resources{Wood: 2, Stone: 2, Ink: 1},
			BasePoints:     4,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryPalace: 2},
			SpecialEffect:  "policy_maker",
		},
		{
			TileID:         "government_2",
			Category:       CategoryGovernment,
			NameKo:         "육조거리",
			NameEn:         "Six Ministries Street",
			Cost:           Resources{Wood: 2, Stone: 1, Ink: 1},
			BasePoints:     3,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryGovernment: 1},
		},
		{
			TileID:         "government_3",
			Category:       CategoryGovernment,
			NameKo:         "사헌부",
			NameEn:         "Office of Inspector General",
			Cost:           Resources{Wood: 1, Stone: 2, Ink: 1},
			BasePoints:     3,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryPalace: 1},
		},
		{
			TileID:         "government_4",
			Category:       CategoryGovernment,
			NameKo:         "성균관",
			NameEn:         "Royal Academy",
			Cost:           Resources{Wood: 2, Stone: 1, Tile: 1},
			BasePoints:     4,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryReligious: 1},
			SpecialEffect:  "scholar_training",
		},
		{
			TileID:         "government_5",
			Category:       CategoryGovernment,
			NameKo:         "한성부",
			NameEn:         "Capital Administration",
			Cost:           Resources{Wood: 1, Stone: 1, Ink: 1},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryResidential: 1},
		},
		{
			TileID:         "government_6",
			Category:       CategoryGovernment,
			NameKo:         "승정원",
			NameEn:         "Royal Secretariat",
			Cost:           Resources{Wood: 1, Stone: 2},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryPalace: 1},
		},

		// Religious tiles (6), moderate points, workers produce roof tiles
		{
			TileID:         "religious_1",
			Category:       CategoryReligious,
			NameKo:         "종묘",
			NameEn:         "Jongmyo Shrine",
			Cost:           Resources{Wood: 2, Stone: 2, Tile: 1},
			BasePoints:     5,
			FengshuiBonus:  3,
			AdjacencyBonus: map[TileCategory]int{CategoryPalace: 2},
			SpecialEffect:  "ancestral_blessing",
		},
		{
			TileID:         "religious_2",
			Category:       CategoryReligious,
			NameKo:         "사직단",
			NameEn:         "Sajik Altar",
			Cost:           Resources{Wood: 1, Stone: 2, Tile: 1},
			BasePoints:     4,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryGovernment: 1},
		},
		{
			TileID:         "religious_3",
			Category:       CategoryReligious,
			NameKo:         "원각사",
			NameEn:         "Wongaksa Temple",
			Cost:           Resources{Wood: 2, Stone: 1, Tile: 1},
			BasePoints:     3,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryReligious: 1},
		},
		{
			TileID:         "religious_4",
			Category:       CategoryReligious,
			NameKo:         "흥천사",
			NameEn:         "Heungcheonsa Temple",
			Cost:           Resources{Wood: 2, Stone: 1},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryResidential: 1},
		},
		{
			TileID:         "religious_5",
			Category:       CategoryReligious,
			NameKo:         "봉은사",
			NameEn:         "Bongeunsa Temple",
			Cost:           Resources{Wood: 1, Stone: 1, Tile: 1},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 1},
		},
		{
			TileID:         "religious_6",
			Category:       CategoryReligious,
			NameKo:         "문묘",
			NameEn:         "Confucian Shrine",
			Cost:           Resources{Wood: 1, Stone: 2},
			BasePoints:     3,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryGovernment: 1},
		},

		// Commercial tiles (8), low points, workers produce stone
		{
			TileID:         "commercial_1",
			Category:       CategoryCommercial,
			NameKo:         "시전",
			NameEn:         "Market Street",
			Cost:           Resources{Wood: 1, Stone: 1},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 1},
			SpecialEffect:  "trade_route",
		},
		{
			TileID:         "commercial_2",
			Category:       CategoryCommercial,
			NameKo:         "이현",
			NameEn:         "Ihyeon Market",
			Cost:           Resources{Wood: 1, Stone: 1},
			BasePoints:     1,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryResidential: 1},
		},
		{
			TileID:         "commercial_3",
			Category:       CategoryCommercial,
			NameKo:         "칠패",
			NameEn:         "Chilpae Market",
			Cost:           Resources{Wood: 2, Stone: 1},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryGate: 1},
		},
		{
			TileID:         "commercial_4",
			Category:       CategoryCommercial,
			NameKo:         "종로",
			NameEn:         "Jongno Street",
			Cost:           Resources{Wood: 1, Stone: 2},
			BasePoints:     3,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryGovernment: 1},
		},
		{
			TileID:         "commercial_5",
			Category:       CategoryCommercial,
			NameKo:         "운종가",
			NameEn:         "Unjongga",
			Cost:           Resources{Wood: 1, Stone: 1},
			BasePoints:     1,
			FengshuiBonus:  0,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 1},
		},
		{
			TileID:         "commercial_6",
			Category:       CategoryCommercial,
			NameKo:         "배오개",
			NameEn:         "Baeogae",
			Cost:           Resources{Wood: 1, Stone: 1},
			BasePoints:     1,
			FengshuiBonus:  0,
			AdjacencyBonus: map[TileCategory]int{CategoryResidential: 1},
		},
		{
			TileID:         "commercial_7",
			Category:       CategoryCommercial,
			NameKo:         "광통교",
			NameEn:         "Gwangtong Bridge",
			Cost:           Resources{Wood: 2},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{},
			SpecialEffect:  "bridge_crossing",
		},
		{
			TileID:         "commercial_8",
			Category:       CategoryCommercial,
			NameKo:         "저자거리",
			NameEn:         "Jeoja Street",
			Cost:           Resources{Stone: 2},
			BasePoints:     1,
			FengshuiBonus:  0,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 1},
		},

		// Residential tiles (8), lowest points, workers produce wood
		{
			TileID:         "residential_1",
			Category:       CategoryResidential,
			NameKo:         "북촌",
			NameEn:         "Bukchon",
			Cost:           Resources{Wood: 2},
			BasePoints:     2,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryPalace: 1},
			SpecialEffect:  "noble_district",
		},
		{
			TileID:         "residential_2",
			Category:       CategoryResidential,
			NameKo:         "남촌",
			NameEn:         "Namchon",
			Cost:           Resources{Wood: 2},
			BasePoints:     2,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryGovernment: 1},
		},
		{
			TileID:         "residential_3",
			Category:       CategoryResidential,
			NameKo:         "서촌",
			NameEn:         "Seochon",
			Cost:           Resources{Wood: 1, Stone: 1},
			BasePoints:     1,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryReligious: 1},
		},
		{
			TileID:         "residential_4",
			Category:       CategoryResidential,
			NameKo:         "중촌",
			NameEn:         "Jungchon",
			Cost:           Resources{Wood: 1},
			BasePoints:     1,
			FengshuiBonus:  0,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 1},
		},
		{
			TileID:         "residential_5",
			Category:       CategoryResidential,
			NameKo:         "피맛골",
			NameEn:         "Pimatgol",
			Cost:           Resources{Wood: 1},
			BasePoints:     0,
			FengshuiBonus:  0,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 1},
		},
		{
			TileID:         "residential_6",
			Category:       CategoryResidential,
			NameKo:         "청계천변",
			NameEn:         "Cheonggyecheon Side",
			Cost:           Resources{Wood: 1, Stone: 1},
			BasePoints:     1,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{},
			SpecialEffect:  "waterfront",
		},
		{
			TileID:         "residential_7",
			Category:       CategoryResidential,
			NameKo:         "가회동",
			NameEn:         "Gahoe-dong",
			Cost:           Resources{Wood: 2},
			BasePoints:     1,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryResidential: 1},
		},
		{
			TileID:         "residential_8",
			Category:       CategoryResidential,
			NameKo:         "인사동",
			NameEn:         "Insa-dong",
			Cost:           Resources{Wood: 1},
			BasePoints:     1,
			FengshuiBonus:  0,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 1},
		},

		// Gate tiles (4), city wall gates with a single apprentice slot
		{
			TileID:         "gate_1",
			Category:       CategoryGate,
			NameKo:         "숭례문",
			NameEn:         "Sungnyemun Gate",
			Cost:           Resources{Wood: 1, Stone: 3},
			BasePoints:     4,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 2},
			SpecialEffect:  "south_gate",
			WorkerSlots:    1,
		},
		{
			TileID:         "gate_2",
			Category:       CategoryGate,
			NameKo:         "흥인지문",
			NameEn:         "Heunginjimun Gate",
			Cost:           Resources{Wood: 1, Stone: 3},
			BasePoints:     4,
			FengshuiBonus:  2,
			AdjacencyBonus: map[TileCategory]int{CategoryCommercial: 2},
			SpecialEffect:  "east_gate",
			WorkerSlots:    1,
		},
		{
			TileID:         "gate_3",
			Category:       CategoryGate,
			NameKo:         "돈의문",
			NameEn:         "Donuimun Gate",
			Cost:           Resources{Wood: 1, Stone: 2},
			BasePoints:     3,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryResidential: 1},
			SpecialEffect:  "west_gate",
			WorkerSlots:    1,
		},
		{
			TileID:         "gate_4",
			Category:       CategoryGate,
			NameKo:         "숙정문",
			NameEn:         "Sukjeongmun Gate",
			Cost:           Resources{Wood: 1, Stone: 2},
			BasePoints:     3,
			FengshuiBonus:  1,
			AdjacencyBonus: map[TileCategory]int{CategoryPalace: 1},
			SpecialEffect:  "north_gate",
			WorkerSlots:    1,
		},
	}
}
