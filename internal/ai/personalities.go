package ai

import "hanyang/internal/game"

// Personality is one preconfigured AI opponent profile.
type Personality struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	NameEn     string            `json:"name_en"`
	Difficulty game.AIDifficulty `json:"difficulty"`
	Strategy   string            `json:"strategy"`
}

// Personalities returns the predefined opponent profiles in display
// order.
func Personalities() []Personality {
	return []Personality{
		{
			ID:         "aggressive_builder",
			Name:       "공격적 건축가",
			NameEn:     "Aggressive Builder",
			Difficulty: game.DifficultyHard,
			Strategy:   "Focuses on placing as many tiles as possible",
		},
		{
			ID:         "resource_hoarder",
			Name:       "자원 수집가",
			NameEn:     "Resource Hoarder",
			Difficulty: game.DifficultyMedium,
			Strategy:   "Prioritizes resource generation",
		},
		{
			ID:         "feng_shui_master",
			Name:       "풍수 대가",
			NameEn:     "Feng Shui Master",
			Difficulty: game.DifficultyHard,
			Strategy:   "Maximizes feng shui bonuses",
		},
		{
			ID:         "beginner",
			Name:       "초보 도전자",
			NameEn:     "Beginner Challenger",
			Difficulty: game.DifficultyEasy,
			Strategy:   "Makes random decisions, good for practice",
		},
	}
}

// PersonalityByID resolves a profile id. Unknown ids fall back to the
// resource hoarder, the default opponent.
func PersonalityByID(id string) Personality {
	all := Personalities()
	for _, p := range all {
		if p.ID == id {
			return p
		}
	}
	return all[1]
}
