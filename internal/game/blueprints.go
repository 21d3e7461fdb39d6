package game

import (
	"math/rand"
	"strings"
)

// BlueprintCategory groups the hidden objective cards.
type BlueprintCategory string

const (
	BlueprintPalaceProximity    BlueprintCategory = "palace_proximity"
	BlueprintCategoryCollection BlueprintCategory = "category_collection"
	BlueprintPattern            BlueprintCategory = "pattern"
	BlueprintSpecial            BlueprintCategory = "special"
)

// ConditionKind tags the completion test of a blueprint card.
type ConditionKind string

const (
	CondPalaceAdjacent         ConditionKind = "palace_adjacent"
	CondPalaceSurround         ConditionKind = "palace_surround"
	CondPalaceAdjacentCategory ConditionKind = "palace_adjacent_category"
	CondCategoryCount          ConditionKind = "category_count"
	CondDiverseCategories      ConditionKind = "diverse_categories"
	CondTileCount              ConditionKind = "tile_count"
	CondRowCount               ConditionKind = "row_count"
	CondColumnCount            ConditionKind = "column_count"
	CondDiagonalCount          ConditionKind = "diagonal_count"
	CondCluster2x2             ConditionKind = "cluster_2x2"
	CondCornerCount            ConditionKind = "corner_count"
	CondCenterCount            ConditionKind = "center_count"
	CondFengshuiCount          ConditionKind = "fengshui_count"
	CondAllWorkersPlaced       ConditionKind = "all_workers_placed"
	CondResourcesUnder         ConditionKind = "resources_under"
	CondAllConnected           ConditionKind = "all_connected"
	CondBalancedCategories     ConditionKind = "balanced_categories"
)

// Condition is a tagged completion test; only the parameters relevant
// to its Kind are set.
type Condition struct {
	Kind       ConditionKind  `json:"type"`
	MinCount   int            `json:"min_count,omitempty"`
	MinTypes   int            `json:"min_types,omitempty"`
	MinEach    int            `json:"min_each,omitempty"`
	MaxTotal   int            `json:"max_total,omitempty"`
	Directions int            `json:"directions,omitempty"`
	Category   TileCategory   `json:"category,omitempty"`
	Categories []TileCategory `json:"categories,omitempty"`
}

// BlueprintCard is one entry of the immutable objective catalog. A
// player who fulfils the condition at game end earns the bonus.
type BlueprintCard struct {
	BlueprintID   string            `json:"blueprint_id"`
	Category      BlueprintCategory `json:"category"`
	NameKo        string            `json:"name_ko"`
	NameEn        string            `json:"name_en"`
	DescriptionKo string            `json:"description_ko"`
	Condition     Condition         `json:"condition"`
	BonusPoints   int               `json:"bonus_points"`
}

// BlueprintCatalog is the read-only card lookup, built once at startup.
type BlueprintCatalog struct {
	byID  map[string]BlueprintCard
	order []string
}

// NewBlueprintCatalog builds the standard 24-card catalog.
func NewBlueprintCatalog() *BlueprintCatalog {
	cards := standardBlueprints()
	catalog := &BlueprintCatalog{byID: make(map[string]BlueprintCard, len(cards))}
	for _, card := range cards {
		catalog.byID[card.BlueprintID] = card
		catalog.order = append(catalog.order, card.BlueprintID)
	}
	return catalog
}

// Get looks up a card by id.
func (c *BlueprintCatalog) Get(blueprintID string) (BlueprintCard, error) {
	card, ok := c.byID[blueprintID]
	if !ok {
		return BlueprintCard{}, Errorf(KindNotFound, "unknown blueprint %q", blueprintID)
	}
	return card, nil
}

// Len is the number of catalog entries.
func (c *BlueprintCatalog) Len() int {
	return len(c.order)
}

// All returns every card in catalog order.
func (c *BlueprintCatalog) All() []BlueprintCard {
	cards := make([]BlueprintCard, 0, len(c.order))
	for _, id := range c.order {
		cards = append(cards, c.byID[id])
	}
	return cards
}

// Deal shuffles the catalog and hands cardsPerPlayer ids to each of
// numPlayers players. Hands never share a card.
func (c *BlueprintCatalog) Deal(rng *rand.Rand, numPlayers, cardsPerPlayer int) ([][]string, error) {
	need := numPlayers * cardsPerPlayer
	if need > len(c.order) {
		return nil, Errorf(KindInternal, "cannot deal %d cards from a %d-card catalog", need, len(c.order))
	}

	ids := append([]string(nil), c.order...)
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	hands := make([][]string, numPlayers)
	for i := range hands {
		start := i * cardsPerPlayer
		hands[i] = ids[start : start+cardsPerPlayer]
	}
	return hands, nil
}

// Score sums the payoff of every blueprint the player selected. The
// returned map holds one entry per selected card id.
func (c *BlueprintCatalog) Score(board Board, player *PlayerState) (int, map[string]int) {
	total := 0
	breakdown := make(map[string]int, len(player.SelectedBlueprints))
	for _, id := range player.SelectedBlueprints {
		card, ok := c.byID[id]
		if !ok {
			breakdown[id] = 0
			continue
		}
		bonus := EvaluateBlueprint(card, board, player)
		breakdown[id] = bonus
		total += bonus
	}
	return total, breakdown
}

// EvaluateBlueprint returns the card's bonus when its condition holds
// on the board, zero otherwise. Ownership is keyed by the player's
// user id, the same identifier PlacedTile stores.
func EvaluateBlueprint(card BlueprintCard, board Board, player *PlayerState) int {
	owned := board.OwnedBy(player.UserID)
	cond := card.Condition

	met := false
	switch cond.Kind {
	case CondPalaceAdjacent:
		met = palaceAdjacentCount(board, owned, "") >= cond.MinCount
	case CondPalaceSurround:
		met = palaceSurrounded(board, player.UserID, cond.Directions)
	case CondPalaceAdjacentCategory:
		met = palaceAdjacentCount(board, owned, cond.Category) >= cond.MinCount
	case CondCategoryCount:
		met = categoryCount(owned, cond.Category) >= cond.MinCount
	case CondDiverseCategories:
		met = distinctCategories(owned) >= cond.MinTypes
	case CondTileCount:
		met = len(owned) >= cond.MinCount
	case CondRowCount:
		met = hasLineCount(board, player.UserID, cond.MinCount, true)
	case CondColumnCount:
		met = hasLineCount(board, player.UserID, cond.MinCount, false)
	case CondDiagonalCount:
		met = hasDiagonalRun(board, player.UserID, cond.MinCount)
	case CondCluster2x2:
		met = hasCluster2x2(board, player.UserID)
	case CondCornerCount:
		met = cornerCount(board, player.UserID) >= cond.MinCount
	case CondCenterCount:
		met = centerCount(board, player.UserID) >= cond.MinCount
	case CondFengshuiCount:
		met = fengshuiCount(owned) >= cond.MinCount
	case CondAllWorkersPlaced:
		met = player.Workers.AllPlaced()
	case CondResourcesUnder:
		met = player.Resources.Total() <= cond.MaxTotal
	case CondAllConnected:
		met = allConnected(owned)
	case CondBalancedCategories:
		met = balancedCategories(owned, cond.Categories, cond.MinEach)
	}

	if met {
		return card.BonusPoints
	}
	return 0
}

// palacePositions finds every palace on the board, any owner.
func palacePositions(board Board) []Position {
	var positions []Position
	for row := range board {
		for col := range board[row] {
			tile := board[row][col].Tile
			if tile != nil && strings.HasPrefix(tile.TileID, "palace") {
				positions = append(positions, Position{Row: row, Col: col})
			}
		}
	}
	return positions
}

// palaceAdjacentCount counts the player's tiles standing orthogonally
// next to any palace. A non-empty category narrows the count to tiles
// of that category. Cells adjacent to two palaces count once.
func palaceAdjacentCount(board Board, owned []OwnedTile, category TileCategory) int {
	palaces := palacePositions(board)
	if len(palaces) == 0 {
		return 0
	}

	nextToPalace := make(map[Position]bool)
	for _, p := range palaces {
		for _, n := range board.Neighbors(p) {
			nextToPalace[n] = true
		}
	}

	count := 0
	for _, ot := range owned {
		if !nextToPalace[ot.Position] {
			continue
		}
		if category != "" && categoryOfTile(ot.Tile.TileID) != category {
			continue
		}
		count++
	}
	return count
}

// palaceSurrounded reports whether the player's tiles occupy at least
// directions of the orthogonal neighbors of some palace.
func palaceSurrounded(board Board, ownerID int64, directions int) bool {
	palaces := palacePositions(board)
	if len(palaces) == 0 {
		return false
	}
	for _, p := range palaces {
		count := 0
		for _, n := range board.Neighbors(p) {
			if tile := board.At(n).Tile; tile != nil && tile.OwnerID == ownerID {
				count++
			}
		}
		if count >= directions {
			return true
		}
	}
	return false
}

func categoryCount(owned []OwnedTile, category TileCategory) int {
	count := 0
	for _, ot := range owned {
		if categoryOfTile(ot.Tile.TileID) == category {
			count++
		}
	}
	return count
}

func distinctCategories(owned []OwnedTile) int {
	seen := make(map[TileCategory]bool)
	for _, ot := range owned {
		seen[categoryOfTile(ot.Tile.TileID)] = true
	}
	return len(seen)
}

// hasLineCount reports whether any single row (or column) holds at
// least minCount of the player's tiles. The tiles need not be
// consecutive.
func hasLineCount(board Board, ownerID int64, minCount int, byRow bool) bool {
	for i := 0; i < BoardSize; i++ {
		count := 0
		for j := 0; j < BoardSize; j++ {
			pos := Position{Row: i, Col: j}
			if !byRow {
				pos = Position{Row: j, Col: i}
			}
			if tile := board.At(pos).Tile; tile != nil && tile.OwnerID == ownerID {
				count++
			}
		}
		if count >= minCount {
			return true
		}
	}
	return false
}

// hasDiagonalRun reports whether the player owns minCount consecutive
// tiles along any diagonal, in either direction.
func hasDiagonalRun(board Board, ownerID int64, minCount int) bool {
	longest := func(start Position, dr, dc int) int {
		run, best := 0, 0
		for pos := start; board.InBounds(pos); pos = (Position{Row: pos.Row + dr, Col: pos.Col + dc}) {
			if tile := board.At(pos).Tile; tile != nil && tile.OwnerID == ownerID {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
		return best
	}

	for i := 0; i < BoardSize; i++ {
		if longest(Position{Row: 0, Col: i}, 1, 1) >= minCount {
			return true
		}
		if longest(Position{Row: i, Col: 0}, 1, 1) >= minCount {
			return true
		}
		if longest(Position{Row: 0, Col: i}, 1, -1) >= minCount {
			return true
		}
		if longest(Position{Row: i, Col: BoardSize - 1}, 1, -1) >= minCount {
			return true
		}
	}
	return false
}

func hasCluster2x2(board Board, ownerID int64) bool {
	ownedAt := func(row, col int) bool {
		tile := board[row][col].Tile
		return tile != nil && tile.OwnerID == ownerID
	}
	for row := 0; row < BoardSize-1; row++ {
		for col := 0; col < BoardSize-1; col++ {
			if ownedAt(row, col) && ownedAt(row, col+1) && ownedAt(row+1, col) && ownedAt(row+1, col+1) {
				return true
			}
		}
	}
	return false
}

func cornerCount(board Board, ownerID int64) int {
	corners := []Position{
		{Row: 0, Col: 0}, {Row: 0, Col: BoardSize - 1},
		{Row: BoardSize - 1, Col: 0}, {Row: BoardSize - 1, Col: BoardSize - 1},
	}
	count := 0
	for _, pos := range corners {
		if tile := board.At(pos).Tile; tile != nil && tile.OwnerID == ownerID {
			count++
		}
	}
	return count
}

func centerCount(board Board, ownerID int64) int {
	start := (BoardSize - 3) / 2
	count := 0
	for row := start; row < start+3; row++ {
		for col := start; col < start+3; col++ {
			if tile := board[row][col].Tile; tile != nil && tile.OwnerID == ownerID {
				count++
			}
		}
	}
	return count
}

func fengshuiCount(owned []OwnedTile) int {
	count := 0
	for _, ot := range owned {
		if ot.Tile.FengshuiActive {
			count++
		}
	}
	return count
}

// allConnected reports whether the player's tiles form one 4-connected
// component. Zero or one tile is trivially connected.
func allConnected(owned []OwnedTile) bool {
	if len(owned) <= 1 {
		return true
	}

	positions := make(map[Position]bool, len(owned))
	for _, ot := range owned {
		positions[ot.Position] = true
	}

	visited := map[Position]bool{owned[0].Position: true}
	queue := []Position{owned[0].Position}
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			n := Position{Row: pos.Row + d[0], Col: pos.Col + d[1]}
			if positions[n] && !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return len(visited) == len(owned)
}

func balancedCategories(owned []OwnedTile, categories []TileCategory, minEach int) bool {
	counts := make(map[TileCategory]int)
	for _, ot := range owned {
		counts[categoryOfTile(ot.Tile.TileID)]++
	}
	for _, category := range categories {
		if counts[category] < minEach {
			return false
		}
	}
	return true
}

func standardBlueprints() []BlueprintCard {
	return []BlueprintCard{
		// Palace proximity (6)
		{
			BlueprintID:   "palace_neighbor_1",
			Category:      BlueprintPalaceProximity,
			NameKo:        "궁궐의 벗",
			NameEn:        "Palace Companion",
			DescriptionKo: "궁궐에 인접한 내 건물 2개 이상",
			Condition:     Condition{Kind: CondPalaceAdjacent, MinCount: 2},
			BonusPoints:   4,
		},
		{
			BlueprintID:   "palace_neighbor_2",
			Category:      BlueprintPalaceProximity,
			NameKo:        "궁성 수호자",
			NameEn:        "Palace Guardian",
			DescriptionKo: "궁궐에 인접한 내 건물 3개 이상",
			Condition:     Condition{Kind: CondPalaceAdjacent, MinCount: 3},
			BonusPoints:   6,
		},
		{
			BlueprintID:   "palace_neighbor_3",
			Category:      BlueprintPalaceProximity,
			NameKo:        "어전 담당관",
			NameEn:        "Royal Steward",
			DescriptionKo: "궁궐 4방향 모두에 내 건물 배치",
			Condition:     Condition{Kind: CondPalaceSurround, Directions: 4},
			BonusPoints:   10,
		},
		{
			BlueprintID:   "palace_neighbor_4",
			Category:      BlueprintPalaceProximity,
			NameKo:        "내전 설계사",
			NameEn:        "Inner Palace Designer",
			DescriptionKo: "궁궐 인접 관아 건물 2개 이상",
			Condition:     Condition{Kind: CondPalaceAdjacentCategory, Category: CategoryGovernment, MinCount: 2},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "palace_neighbor_5",
			Category:      BlueprintPalaceProximity,
			NameKo:        "왕실 상인",
			NameEn:        "Royal Merchant",
			DescriptionKo: "궁궐 인접 시전 건물 2개 이상",
			Condition:     Condition{Kind: CondPalaceAdjacentCategory, Category: CategoryCommercial, MinCount: 2},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "palace_neighbor_6",
			Category:      BlueprintPalaceProximity,
			NameKo:        "사찰 후원자",
			NameEn:        "Temple Patron",
			DescriptionKo: "궁궐 인접 사찰 건물 1개 이상",
			Condition:     Condition{Kind: CondPalaceAdjacentCategory, Category: CategoryReligious, MinCount: 1},
			BonusPoints:   3,
		},

		// Category collection (6)
		{
			BlueprintID:   "collection_commercial",
			Category:      BlueprintCategoryCollection,
			NameKo:        "상업 거물",
			NameEn:        "Commerce Tycoon",
			DescriptionKo: "시전 건물 4개 이상 건설",
			Condition:     Condition{Kind: CondCategoryCount, Category: CategoryCommercial, MinCount: 4},
			BonusPoints:   6,
		},
		{
			BlueprintID:   "collection_residential",
			Category:      BlueprintCategoryCollection,
			NameKo:        "민생 도감",
			NameEn:        "Residential Developer",
			DescriptionKo: "민가 건물 4개 이상 건설",
			Condition:     Condition{Kind: CondCategoryCount, Category: CategoryResidential, MinCount: 4},
			BonusPoints:   6,
		},
		{
			BlueprintID:   "collection_government",
			Category:      BlueprintCategoryCollection,
			NameKo:        "관료의 길",
			NameEn:        "Path of Officials",
			DescriptionKo: "관아 건물 3개 이상 건설",
			Condition:     Condition{Kind: CondCategoryCount, Category: CategoryGovernment, MinCount: 3},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "collection_religious",
			Category:      BlueprintCategoryCollection,
			NameKo:        "신앙의 수호자",
			NameEn:        "Faith Guardian",
			DescriptionKo: "사찰 건물 3개 이상 건설",
			Condition:     Condition{Kind: CondCategoryCount, Category: CategoryReligious, MinCount: 3},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "collection_diverse",
			Category:      BlueprintCategoryCollection,
			NameKo:        "만물상",
			NameEn:        "Jack of All Trades",
			DescriptionKo: "서로 다른 5개 건물 유형 보유",
			Condition:     Condition{Kind: CondDiverseCategories, MinTypes: 5},
			BonusPoints:   7,
		},
		{
			BlueprintID:   "collection_gate",
			Category:      BlueprintCategoryCollection,
			NameKo:        "성문 관리관",
			NameEn:        "Gate Master",
			DescriptionKo: "성문 건물 2개 이상 건설",
			Condition:     Condition{Kind: CondCategoryCount, Category: CategoryGate, MinCount: 2},
			BonusPoints:   4,
		},

		// Patterns (6)
		{
			BlueprintID:   "pattern_row",
			Category:      BlueprintPattern,
			NameKo:        "가로 완성",
			NameEn:        "Row Completion",
			DescriptionKo: "한 가로줄에 내 건물 4개 이상",
			Condition:     Condition{Kind: CondRowCount, MinCount: 4},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "pattern_column",
			Category:      BlueprintPattern,
			NameKo:        "세로 완성",
			NameEn:        "Column Completion",
			DescriptionKo: "한 세로줄에 내 건물 4개 이상",
			Condition:     Condition{Kind: CondColumnCount, MinCount: 4},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "pattern_diagonal",
			Category:      BlueprintPattern,
			NameKo:        "대각 연결",
			NameEn:        "Diagonal Line",
			DescriptionKo: "대각선으로 내 건물 3개 연속",
			Condition:     Condition{Kind: CondDiagonalCount, MinCount: 3},
			BonusPoints:   4,
		},
		{
			BlueprintID:   "pattern_cluster",
			Category:      BlueprintPattern,
			NameKo:        "밀집 지구",
			NameEn:        "Dense District",
			DescriptionKo: "2x2 영역에 내 건물 4개",
			Condition:     Condition{Kind: CondCluster2x2},
			BonusPoints:   6,
		},
		{
			BlueprintID:   "pattern_corner",
			Category:      BlueprintPattern,
			NameKo:        "모서리 장악",
			NameEn:        "Corner Control",
			DescriptionKo: "보드 모서리 4곳 중 3곳에 내 건물",
			Condition:     Condition{Kind: CondCornerCount, MinCount: 3},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "pattern_center",
			Category:      BlueprintPattern,
			NameKo:        "중심 장악",
			NameEn:        "Center Control",
			DescriptionKo: "보드 중앙 3x3 영역에 내 건물 5개 이상",
			Condition:     Condition{Kind: CondCenterCount, MinCount: 5},
			BonusPoints:   7,
		},

		// Special (6)
		{
			BlueprintID:   "special_fengshui",
			Category:      BlueprintSpecial,
			NameKo:        "풍수 달인",
			NameEn:        "Feng Shui Master",
			DescriptionKo: "풍수 보너스를 받는 건물 3개 이상",
			Condition:     Condition{Kind: CondFengshuiCount, MinCount: 3},
			BonusPoints:   6,
		},
		{
			BlueprintID:   "special_workers",
			Category:      BlueprintSpecial,
			NameKo:        "인력 동원",
			NameEn:        "Workforce Mobilization",
			DescriptionKo: "모든 일꾼을 배치",
			Condition:     Condition{Kind: CondAllWorkersPlaced},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "special_efficiency",
			Category:      BlueprintSpecial,
			NameKo:        "자원 효율",
			NameEn:        "Resource Efficiency",
			DescriptionKo: "게임 종료 시 자원 합계 3 이하",
			Condition:     Condition{Kind: CondResourcesUnder, MaxTotal: 3},
			BonusPoints:   4,
		},
		{
			BlueprintID:   "special_adjacent",
			Category:      BlueprintSpecial,
			NameKo:        "연결 제국",
			NameEn:        "Connected Empire",
			DescriptionKo: "모든 내 건물이 서로 인접 연결",
			Condition:     Condition{Kind: CondAllConnected},
			BonusPoints:   8,
		},
		{
			BlueprintID:   "special_first_builder",
			Category:      BlueprintSpecial,
			NameKo:        "선구자",
			NameEn:        "Pioneer",
			DescriptionKo: "6개 이상의 건물 건설",
			Condition:     Condition{Kind: CondTileCount, MinCount: 6},
			BonusPoints:   5,
		},
		{
			BlueprintID:   "special_balance",
			Category:      BlueprintSpecial,
			NameKo:        "균형 잡힌 도시",
			NameEn:        "Balanced City",
			DescriptionKo: "관아, 시전, 민가 각 2개 이상",
			Condition: Condition{
				Kind:       CondBalancedCategories,
				Categories: []TileCategory{CategoryGovernment, CategoryCommercial, CategoryResidential},
				MinEach:    2,
			},
			BonusPoints: 6,
		},
	}
}
