package game

// WorkerKind distinguishes the two worker classes.
type WorkerKind string

const (
	WorkerApprentice WorkerKind = "apprentice"
	WorkerOfficial   WorkerKind = "official"
)

// Initial roster sizes.
const (
	initialApprentices = 3
	initialOfficials   = 2
)

// ParseWorkerKind validates a wire value.
func ParseWorkerKind(s string) (WorkerKind, error) {
	switch WorkerKind(s) {
	case WorkerApprentice, WorkerOfficial:
		return WorkerKind(s), nil
	}
	return "", Errorf(KindMalformed, "unknown worker kind %q", s)
}

// WorkerState tracks one class of a player's workers.
type WorkerState struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Placed    int `json:"placed"`
}

// WorkerPool is a player's full worker roster. Operations are pure.
type WorkerPool struct {
	Apprentices WorkerState `json:"apprentices"`
	Officials   WorkerState `json:"officials"`
}

// InitialWorkers is the roster every player starts with.
func InitialWorkers() WorkerPool {
	return WorkerPool{
		Apprentices: WorkerState{Total: initialApprentices, Available: initialApprentices},
		Officials:   WorkerState{Total: initialOfficials, Available: initialOfficials},
	}
}

func (p WorkerPool) state(kind WorkerKind) WorkerState {
	if kind == WorkerApprentice {
		return p.Apprentices
	}
	return p.Officials
}

func (p WorkerPool) with(kind WorkerKind, state WorkerState) WorkerPool {
	if kind == WorkerApprentice {
		p.Apprentices = state
	} else {
		p.Officials = state
	}
	return p
}

// CanPlace reports whether a worker of the kind is available.
func (p WorkerPool) CanPlace(kind WorkerKind) bool {
	return p.state(kind).Available > 0
}

// Place moves one worker of the kind from available to placed.
func (p WorkerPool) Place(kind WorkerKind) (WorkerPool, error) {
	state := p.state(kind)
	if state.Available <= 0 {
		return p, Errorf(KindPreconditionFailed, "no %s workers available", kind)
	}
	state.Available--
	state.Placed++
	return p.with(kind, state), nil
}

// Recall moves one placed worker of the kind back to available.
func (p WorkerPool) Recall(kind WorkerKind) (WorkerPool, error) {
	state := p.state(kind)
	if state.Placed <= 0 {
		return p, Errorf(KindPreconditionFailed, "no %s workers to recall", kind)
	}
	state.Available++
	state.Placed--
	return p.with(kind, state), nil
}

// RecallAll returns every placed worker to the available pool. Not part
// of the default round flow; kept for rules variants with end-of-round
// recall.
func (p WorkerPool) RecallAll() WorkerPool {
	p.Apprentices = WorkerState{Total: p.Apprentices.Total, Available: p.Apprentices.Total}
	p.Officials = WorkerState{Total: p.Officials.Total, Available: p.Officials.Total}
	return p
}

// AllPlaced reports whether no worker of either class remains available.
func (p WorkerPool) AllPlaced() bool {
	return p.Apprentices.Available == 0 && p.Officials.Available == 0
}

// PlacedCount is the number of workers currently on the board.
func (p WorkerPool) PlacedCount() int {
	return p.Apprentices.Placed + p.Officials.Placed
}

// Validate checks the accounting invariant for both classes.
func (p WorkerPool) Validate() error {
	for kind, state := range map[WorkerKind]WorkerState{
		WorkerApprentice: p.Apprentices,
		WorkerOfficial:   p.Officials,
	} {
		if state.Available < 0 || state.Placed < 0 || state.Total < 0 {
			return Errorf(KindInternal, "negative %s worker count", kind)
		}
		if state.Available+state.Placed != state.Total {
			return Errorf(KindInternal, "%s workers out of balance: %d available + %d placed != %d total",
				kind, state.Available, state.Placed, state.Total)
		}
	}
	return nil
}

// CanPlaceOnTile reports whether a worker of the kind fits the slot. The
// apprentice capacity comes from the tile's catalog entry; official
// capacity is always one.
func CanPlaceOnTile(existing []PlacedWorker, kind WorkerKind, slotIndex, apprenticeSlots int) bool {
	limit := apprenticeSlots
	if kind == WorkerOfficial {
		limit = officialSlots
	}
	if slotIndex < 0 || slotIndex >= limit {
		return false
	}
	for _, worker := range existing {
		if worker.Kind == kind && worker.SlotIndex == slotIndex {
			return false
		}
	}
	return true
}
