package game

// AIDifficulty selects how sharply an AI seat plays.
type AIDifficulty string

const (
	DifficultyEasy   AIDifficulty = "easy"
	DifficultyMedium AIDifficulty = "medium"
	DifficultyHard   AIDifficulty = "hard"
)

// ParseAIDifficulty maps a request string onto a difficulty, falling
// back to medium for anything unknown.
func ParseAIDifficulty(s string) AIDifficulty {
	switch AIDifficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return AIDifficulty(s)
	}
	return DifficultyMedium
}

// FinalScore is one player's end-of-game accounting. ResourcePenalty is
// stored as a magnitude and subtracted from the total.
type FinalScore struct {
	PlayerID           int64          `json:"player_id"`
	UserID             int64          `json:"user_id"`
	Username           string         `json:"username"`
	BaseScore          int            `json:"base_score"`
	BlueprintScore     int            `json:"blueprint_score"`
	BlueprintBreakdown map[string]int `json:"blueprint_breakdown"`
	WorkerScore        int            `json:"worker_score"`
	ResourcePenalty    int            `json:"resource_penalty"`
	TotalScore         int            `json:"total_score"`
	Rank               int            `json:"rank"`
}

// PlayerState is one seat in a game. UserID is the canonical actor id:
// positive for humans, negative for AI seats. Every ownership field on
// the board stores this same identifier.
type PlayerState struct {
	ID                 int64        `json:"id"`
	UserID             int64        `json:"user_id"`
	Username           string       `json:"username"`
	Color              string       `json:"color"`
	TurnOrder          int          `json:"turn_order"`
	IsHost             bool         `json:"is_host"`
	IsReady            bool         `json:"is_ready"`
	Resources          Resources    `json:"resources"`
	Workers            WorkerPool   `json:"workers"`
	DealtBlueprints    []string     `json:"dealt_blueprints"`
	SelectedBlueprints []string     `json:"selected_blueprints"`
	Score              int          `json:"score"`
	PlacedTiles        []string     `json:"placed_tiles"`
	IsAI               bool         `json:"is_ai"`
	AIDifficulty       AIDifficulty `json:"ai_difficulty,omitempty"`
	FinalScore         *FinalScore  `json:"final_score,omitempty"`
}

// NewPlayer builds the initial state for one human seat.
func NewPlayer(id, userID int64, username, color string, turnOrder int, isHost bool) *PlayerState {
	return &PlayerState{
		ID:                 id,
		UserID:             userID,
		Username:           username,
		Color:              color,
		TurnOrder:          turnOrder,
		IsHost:             isHost,
		IsReady:            true,
		Resources:          InitialResources(),
		Workers:            InitialWorkers(),
		DealtBlueprints:    []string{},
		SelectedBlueprints: []string{},
		PlacedTiles:        []string{},
	}
}

// NewAIPlayer builds the initial state for one AI seat. AI user ids are
// negative so they can never collide with real users.
func NewAIPlayer(id, userID int64, username, color string, turnOrder int, difficulty AIDifficulty) *PlayerState {
	p := NewPlayer(id, userID, username, color, turnOrder, false)
	p.IsAI = true
	p.AIDifficulty = difficulty
	return p
}

// HasSelectedBlueprint reports whether the player has committed to an
// objective already.
func (p *PlayerState) HasSelectedBlueprint() bool {
	return len(p.SelectedBlueprints) > 0
}

// HasDealtBlueprint reports whether the card is still in the player's
// hand.
func (p *PlayerState) HasDealtBlueprint(blueprintID string) bool {
	for _, id := range p.DealtBlueprints {
		if id == blueprintID {
			return true
		}
	}
	return false
}

// SelectBlueprint moves one dealt card into the selected set. A player
// commits to exactly one objective per game.
func (p *PlayerState) SelectBlueprint(blueprintID string) error {
	if p.HasSelectedBlueprint() {
		return Errorf(KindPreconditionFailed, "blueprint already selected")
	}
	if !p.HasDealtBlueprint(blueprintID) {
		return Errorf(KindPreconditionFailed, "blueprint %q not in dealt cards", blueprintID)
	}

	remaining := make([]string, 0, len(p.DealtBlueprints)-1)
	for _, id := range p.DealtBlueprints {
		if id != blueprintID {
			remaining = append(remaining, id)
		}
	}
	p.DealtBlueprints = remaining
	p.SelectedBlueprints = append(p.SelectedBlueprints, blueprintID)
	return nil
}

// Clone deep-copies the player so snapshots stay immutable.
func (p *PlayerState) Clone() *PlayerState {
	clone := *p
	clone.DealtBlueprints = append([]string(nil), p.DealtBlueprints...)
	clone.SelectedBlueprints = append([]string(nil), p.SelectedBlueprints...)
	clone.PlacedTiles = append([]string(nil), p.PlacedTiles...)
	if p.FinalScore != nil {
		fs := *p.FinalScore
		if p.FinalScore.BlueprintBreakdown != nil {
			fs.BlueprintBreakdown = make(map[string]int, len(p.FinalScore.BlueprintBreakdown))
			for k, v := range p.FinalScore.BlueprintBreakdown {
				fs.BlueprintBreakdown[k] = v
			}
		}
		clone.FinalScore = &fs
	}
	return &clone
}

// Validate checks the per-player invariants.
func (p *PlayerState) Validate() error {
	if p.UserID == 0 {
		return Errorf(KindInternal, "player %d has no user id", p.ID)
	}
	if p.TurnOrder < 0 {
		return Errorf(KindInternal, "player %d has negative turn order", p.UserID)
	}
	if err := p.Resources.Validate(); err != nil {
		return err
	}
	if err := p.Workers.Validate(); err != nil {
		return err
	}
	if p.IsAI && p.UserID > 0 {
		return Errorf(KindInternal, "AI player %d has a positive user id", p.UserID)
	}
	return nil
}
