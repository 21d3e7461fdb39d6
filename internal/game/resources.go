package game

// ResourceType identifies one of the four building materials.
type ResourceType string

const (
	ResourceWood  ResourceType = "wood"
	ResourceStone ResourceType = "stone"
	ResourceTile  ResourceType = "tile"
	ResourceInk   ResourceType = "ink"
)

// Per-kind stock limits.
var resourceCaps = map[ResourceType]int{
	ResourceWood:  10,
	ResourceStone: 10,
	ResourceTile:  6,
	ResourceInk:   4,
}

// ResourceCap returns the stock limit for a resource kind.
func ResourceCap(kind ResourceType) int {
	return resourceCaps[kind]
}

// Resources is a player's material stock. All operations are pure and
// return a new value.
type Resources struct {
	Wood  int `json:"wood"`
	Stone int `json:"stone"`
	Tile  int `json:"tile"`
	Ink   int `json:"ink"`
}

// InitialResources is the stock every player starts with.
func InitialResources() Resources {
	return Resources{Wood: 2, Stone: 2, Tile: 0, Ink: 0}
}

// Get returns the stock of one kind.
func (r Resources) Get(kind ResourceType) int {
	switch kind {
	case ResourceWood:
		return r.Wood
	case ResourceStone:
		return r.Stone
	case ResourceTile:
		return r.Tile
	case ResourceInk:
		return r.Ink
	}
	return 0
}

func (r Resources) with(kind ResourceType, value int) Resources {
	switch kind {
	case ResourceWood:
		r.Wood = value
	case ResourceStone:
		r.Stone = value
	case ResourceTile:
		r.Tile = value
	case ResourceInk:
		r.Ink = value
	}
	return r
}

// Add adds n units of a kind, clamped at the per-kind cap.
func (r Resources) Add(kind ResourceType, n int) Resources {
	if n < 0 {
		return r
	}
	value := r.Get(kind) + n
	if cap := ResourceCap(kind); value > cap {
		value = cap
	}
	return r.with(kind, value)
}

// Consume removes n units of a kind. It fails when the stock is short.
func (r Resources) Consume(kind ResourceType, n int) (Resources, error) {
	if n < 0 {
		return r, Errorf(KindMalformed, "amount must be non-negative")
	}
	current := r.Get(kind)
	if current < n {
		return r, Errorf(KindPreconditionFailed, "not enough %s: have %d, need %d", kind, current, n)
	}
	return r.with(kind, current-n), nil
}

// CanAfford reports whether every kind in cost is covered by the stock.
func (r Resources) CanAfford(cost Resources) bool {
	return r.Wood >= cost.Wood &&
		r.Stone >= cost.Stone &&
		r.Tile >= cost.Tile &&
		r.Ink >= cost.Ink
}

// Pay deducts a full cost. It fails without partial deduction when any
// kind is short.
func (r Resources) Pay(cost Resources) (Resources, error) {
	if !r.CanAfford(cost) {
		return r, Errorf(KindPreconditionFailed, "cannot afford cost")
	}
	r.Wood -= cost.Wood
	r.Stone -= cost.Stone
	r.Tile -= cost.Tile
	r.Ink -= cost.Ink
	return r, nil
}

// Total is the combined stock across all kinds.
func (r Resources) Total() int {
	return r.Wood + r.Stone + r.Tile + r.Ink
}

// Penalty is the end-game deduction: one point per three held resources.
func (r Resources) Penalty() int {
	return r.Total() / 3
}

// Validate checks the stock against the per-kind bounds.
func (r Resources) Validate() error {
	for _, kind := range []ResourceType{ResourceWood, ResourceStone, ResourceTile, ResourceInk} {
		value := r.Get(kind)
		if value < 0 {
			return Errorf(KindInternal, "negative %s stock: %d", kind, value)
		}
		if value > ResourceCap(kind) {
			return Errorf(KindInternal, "%s stock %d exceeds cap %d", kind, value, ResourceCap(kind))
		}
	}
	return nil
}
