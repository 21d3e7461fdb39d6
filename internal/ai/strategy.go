package ai

import (
	"math"
	"math/rand"

	"hanyang/internal/game"
)

// Strategy is one difficulty tier's decision procedure. Decide returns
// a legal action for the player; when nothing else is legal it returns
// end_turn, so a strategy never stalls a game.
type Strategy interface {
	Decide(g *game.Game, player *game.PlayerState, rules *game.Rules) (game.Action, error)
	Name() string
	Description() string
}

// CreateStrategy builds a strategy by difficulty. Unknown difficulties
// fall back to medium.
func CreateStrategy(difficulty game.AIDifficulty, rng *rand.Rand) Strategy {
	switch difficulty {
	case game.DifficultyEasy:
		return &EasyStrategy{rng: rng}
	case game.DifficultyHard:
		return &HardStrategy{rng: rng}
	default:
		return &MediumStrategy{rng: rng}
	}
}

// EasyStrategy picks uniformly among every legal move.
type EasyStrategy struct {
	rng *rand.Rand
}

func (s *EasyStrategy) Name() string {
	return "Easy"
}

func (s *EasyStrategy) Description() string {
	return "Makes random valid moves, good for practice"
}

func (s *EasyStrategy) Decide(g *game.Game, player *game.PlayerState, rules *game.Rules) (game.Action, error) {
	options := candidateMoves(g, player, rules)
	if len(options) == 0 {
		return game.Action{Kind: game.ActionEndTurn}, nil
	}
	choice := options[s.rng.Intn(len(options))]
	return game.NewAction(choice.Kind, choice.Payload)
}

// MediumStrategy plays a simple value order: commit to the richest
// blueprint, then the highest-scoring placement, then put officials to
// work, then end the turn.
type MediumStrategy struct {
	rng *rand.Rand
}

func (s *MediumStrategy) Name() string {
	return "Medium"
}

func (s *MediumStrategy) Description() string {
	return "Prefers high-scoring tiles and steady production"
}

func (s *MediumStrategy) Decide(g *game.Game, player *game.PlayerState, rules *game.Rules) (game.Action, error) {
	if len(player.DealtBlueprints) > 0 && !player.HasSelectedBlueprint() {
		if id := highestBonusBlueprint(rules, player.DealtBlueprints); id != "" {
			return game.NewAction(game.ActionSelectBlueprint, game.SelectBlueprintPayload{BlueprintID: id})
		}
	}

	if payload, ok := s.pickTile(g, player, rules); ok {
		return game.NewAction(game.ActionPlaceTile, payload)
	}
	if payload, ok := pickWorkerSlot(g, player, rules, s.rng, nil); ok {
		return game.NewAction(game.ActionPlaceWorker, payload)
	}
	return game.Action{Kind: game.ActionEndTurn}, nil
}

// pickTile takes the (tile, position) pair with the highest placement
// score, falling back to a random affordable placement when nothing
// scores.
func (s *MediumStrategy) pickTile(g *game.Game, player *game.PlayerState, rules *game.Rules) (game.PlaceTilePayload, bool) {
	affordable := affordableTiles(g, player, rules)
	positions := openPositions(g.Board)
	if len(affordable) == 0 || len(positions) == 0 {
		return game.PlaceTilePayload{}, false
	}

	var best game.PlaceTilePayload
	bestScore := 0
	found := false
	for _, def := range affordable {
		for _, pos := range positions {
			score, _ := game.ScorePlacement(g.Board, pos, def)
			if score.Total > bestScore {
				bestScore = score.Total
				best = game.PlaceTilePayload{TileID: def.TileID, Position: pos}
				found = true
			}
		}
	}
	if found {
		return best, true
	}

	def := affordable[s.rng.Intn(len(affordable))]
	pos := positions[s.rng.Intn(len(positions))]
	return game.PlaceTilePayload{TileID: def.TileID, Position: pos}, true
}

// HardStrategy sharpens the medium order: blueprints are weighted by
// achievability, placements by efficiency, and workers go where the
// scarcest resources are produced.
type HardStrategy struct {
	rng *rand.Rand
}

func (s *HardStrategy) Name() string {
	return "Hard"
}

func (s *HardStrategy) Description() string {
	return "Maximizes points per resource and plans around its blueprint"
}

func (s *HardStrategy) Decide(g *game.Game, player *game.PlayerState, rules *game.Rules) (game.Action, error) {
	if len(player.DealtBlueprints) > 0 && !player.HasSelectedBlueprint() {
		if id := strategicBlueprint(g, player, rules); id != "" {
			return game.NewAction(game.ActionSelectBlueprint, game.SelectBlueprintPayload{BlueprintID: id})
		}
	}

	if payload, ok := s.pickTile(g, player, rules); ok {
		return game.NewAction(game.ActionPlaceTile, payload)
	}
	if payload, ok := pickWorkerSlot(g, player, rules, s.rng, func(slots []game.PlaceWorkerPayload) (game.PlaceWorkerPayload, bool) {
		return bestProducingSlot(g, player, rules, slots)
	}); ok {
		return game.NewAction(game.ActionPlaceWorker, payload)
	}
	return game.Action{Kind: game.ActionEndTurn}, nil
}

// pickTile weighs every affordable placement by score, efficiency and
// leftover stock: 2·score + score/cost + 0.1·remaining.
func (s *HardStrategy) pickTile(g *game.Game, player *game.PlayerState, rules *game.Rules) (game.PlaceTilePayload, bool) {
	affordable := affordableTiles(g, player, rules)
	positions := openPositions(g.Board)
	if len(affordable) == 0 || len(positions) == 0 {
		return game.PlaceTilePayload{}, false
	}

	var best game.PlaceTilePayload
	bestScore := math.Inf(-1)
	found := false
	for _, def := range affordable {
		totalCost := def.Cost.Total()
		remaining := player.Resources.Total() - totalCost
		for _, pos := range positions {
			score, _ := game.ScorePlacement(g.Board, pos, def)
			total := float64(score.Total)
			efficiency := total / math.Max(1, float64(totalCost))

			weighted := total*2 + efficiency + float64(remaining)*0.1
			if weighted > bestScore {
				bestScore = weighted
				best = game.PlaceTilePayload{TileID: def.TileID, Position: pos}
				found = true
			}
		}
	}
	if found {
		return best, true
	}

	def := affordable[s.rng.Intn(len(affordable))]
	pos := positions[s.rng.Intn(len(positions))]
	return game.PlaceTilePayload{TileID: def.TileID, Position: pos}, true
}

// strategicBlueprint weighs each dealt card by bonus × achievability.
func strategicBlueprint(g *game.Game, player *game.PlayerState, rules *game.Rules) string {
	owned := g.Board.OwnedBy(player.UserID)

	categoryCounts := make(map[game.TileCategory]int)
	for _, o := range owned {
		def, err := rules.Tiles.Get(o.Tile.TileID)
		if err != nil {
			continue
		}
		categoryCounts[def.Category]++
	}

	bestID := ""
	bestScore := -1.0
	for _, id := range player.DealtBlueprints {
		card, err := rules.Blueprints.Get(id)
		if err != nil {
			continue
		}
		weighted := achievability(card.Condition, categoryCounts, len(owned)) * float64(card.BonusPoints)
		if weighted > bestScore {
			bestScore = weighted
			bestID = id
		}
	}
	return bestID
}

// achievability is a 0-1 proxy of progress toward a condition. The
// counting conditions report fractional progress; everything else sits
// at 0.5.
func achievability(cond game.Condition, categoryCounts map[game.TileCategory]int, tileCount int) float64 {
	switch cond.Kind {
	case game.CondCategoryCount:
		if cond.MinCount <= 0 {
			return 1
		}
		return math.Min(1, float64(categoryCounts[cond.Category])/float64(cond.MinCount))
	case game.CondDiverseCategories:
		if cond.MinTypes <= 0 {
			return 1
		}
		return math.Min(1, float64(len(categoryCounts))/float64(cond.MinTypes))
	case game.CondTileCount:
		if cond.MinCount <= 0 {
			return 1
		}
		return math.Min(1, float64(tileCount)/float64(cond.MinCount))
	}
	return 0.5
}

// highestBonusBlueprint picks the dealt card with the largest bonus.
func highestBonusBlueprint(rules *game.Rules, dealt []string) string {
	bestID := ""
	bestPoints := 0
	for _, id := range dealt {
		card, err := rules.Blueprints.Get(id)
		if err != nil {
			continue
		}
		if card.BonusPoints > bestPoints {
			bestPoints = card.BonusPoints
			bestID = id
		}
	}
	return bestID
}

// candidateMoves is the legal-move list minus end_turn; ending the
// turn is the fallback, never a pick.
func candidateMoves(g *game.Game, player *game.PlayerState, rules *game.Rules) []game.ActionTemplate {
	all := g.ValidActions(rules, player.UserID)
	moves := make([]game.ActionTemplate, 0, len(all))
	for _, tmpl := range all {
		if tmpl.Kind != game.ActionEndTurn {
			moves = append(moves, tmpl)
		}
	}
	return moves
}

// affordableTiles resolves the visible supply to definitions the
// player can pay for, in supply order.
func affordableTiles(g *game.Game, player *game.PlayerState, rules *game.Rules) []game.TileDefinition {
	var defs []game.TileDefinition
	for _, tileID := range g.VisibleTiles() {
		def, err := rules.Tiles.Get(tileID)
		if err != nil {
			continue
		}
		if player.Resources.CanAfford(def.Cost) {
			defs = append(defs, def)
		}
	}
	return defs
}

// openPositions lists every buildable cell in row-major order.
func openPositions(board game.Board) []game.Position {
	var positions []game.Position
	for row := 0; row < game.BoardSize; row++ {
		for col := 0; col < game.BoardSize; col++ {
			pos := game.Position{Row: row, Col: col}
			cell := board.At(pos)
			if cell.Terrain == game.TerrainMountain || cell.Tile != nil {
				continue
			}
			positions = append(positions, pos)
		}
	}
	return positions
}

// slotsFor lists the open slots for one worker kind in row-major,
// slot-ascending order.
func slotsFor(g *game.Game, player *game.PlayerState, rules *game.Rules, kind game.WorkerKind) []game.PlaceWorkerPayload {
	var slots []game.PlaceWorkerPayload
	for _, tmpl := range g.ValidActions(rules, player.UserID) {
		if tmpl.Kind != game.ActionPlaceWorker {
			continue
		}
		payload, ok := tmpl.Payload.(game.PlaceWorkerPayload)
		if !ok || payload.WorkerKind != string(kind) {
			continue
		}
		slots = append(slots, payload)
	}
	return slots
}

// pickWorkerSlot chooses a worker placement: officials first for their
// double production, the other class when the first has no open slot.
// rank, when given, orders the slots; otherwise the pick is random.
func pickWorkerSlot(g *game.Game, player *game.PlayerState, rules *game.Rules, rng *rand.Rand, rank func([]game.PlaceWorkerPayload) (game.PlaceWorkerPayload, bool)) (game.PlaceWorkerPayload, bool) {
	var kind game.WorkerKind
	switch {
	case player.Workers.CanPlace(game.WorkerOfficial):
		kind = game.WorkerOfficial
	case player.Workers.CanPlace(game.WorkerApprentice):
		kind = game.WorkerApprentice
	default:
		return game.PlaceWorkerPayload{}, false
	}

	slots := slotsFor(g, player, rules, kind)
	if len(slots) == 0 {
		switch {
		case kind == game.WorkerOfficial && player.Workers.CanPlace(game.WorkerApprentice):
			kind = game.WorkerApprentice
			slots = slotsFor(g, player, rules, kind)
		case kind == game.WorkerApprentice && player.Workers.CanPlace(game.WorkerOfficial):
			kind = game.WorkerOfficial
			slots = slotsFor(g, player, rules, kind)
		}
	}
	if len(slots) == 0 {
		return game.PlaceWorkerPayload{}, false
	}

	if rank != nil {
		if slot, ok := rank(slots); ok {
			return slot, true
		}
	}
	return slots[rng.Intn(len(slots))], true
}

// bestProducingSlot ranks slots by how badly the player needs what the
// tile produces, with a +10 bump for the player's own tiles. Slots on
// non-producing tiles are skipped; ties keep the first slot in board
// order.
func bestProducingSlot(g *game.Game, player *game.PlayerState, rules *game.Rules, slots []game.PlaceWorkerPayload) (game.PlaceWorkerPayload, bool) {
	priority := resourcePriority(g, player, rules)

	var best game.PlaceWorkerPayload
	bestPriority := -1
	found := false
	for _, slot := range slots {
		tile := g.Board.At(slot.TargetPosition).Tile
		if tile == nil {
			continue
		}
		def, err := rules.Tiles.Get(tile.TileID)
		if err != nil {
			continue
		}
		produced, produces := game.ProducedResource(def.Category)
		if !produces {
			continue
		}

		p := priority[produced]
		if tile.OwnerID == player.UserID {
			p += 10
		}
		if p > bestPriority {
			bestPriority = p
			best = slot
			found = true
		}
	}
	return best, found
}

// resourcePriority scores each resource by scarcity against a working
// stock, bumped for every visible tile whose cost outstrips the stock.
func resourcePriority(g *game.Game, player *game.PlayerState, rules *game.Rules) map[game.ResourceType]int {
	r := player.Resources
	priority := map[game.ResourceType]int{
		game.ResourceWood:  maxInt(0, 5-r.Wood),
		game.ResourceStone: maxInt(0, 5-r.Stone),
		game.ResourceTile:  maxInt(0, 4-r.Tile),
		game.ResourceInk:   maxInt(0, 3-r.Ink),
	}

	for _, tileID := range g.VisibleTiles() {
		def, err := rules.Tiles.Get(tileID)
		if err != nil {
			continue
		}
		if def.Cost.Wood > r.Wood {
			priority[game.ResourceWood] += 2
		}
		if def.Cost.Stone > r.Stone {
			priority[game.ResourceStone] += 2
		}
		if def.Cost.Tile > r.Tile {
			priority[game.ResourceTile] += 2
		}
		if def.Cost.Ink > r.Ink {
			priority[game.ResourceInk] += 2
		}
	}
	return priority
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
