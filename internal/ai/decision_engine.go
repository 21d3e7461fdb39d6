package ai

import (
	"math/rand"
	"sync"
	"time"

	"hanyang/internal/game"
	"hanyang/pkg/logger"
)

// DecisionEngine picks moves for AI seats. One engine serves every
// game; calls are serialized because the strategies share one seeded
// random source, which keeps a fixed seed reproducible.
type DecisionEngine struct {
	mu      sync.Mutex
	rng     *rand.Rand
	logger  *logger.ColoredLogger
	loggers map[string]*logger.ColoredLogger
}

// NewDecisionEngine builds an engine around a seed. A zero seed picks
// a fresh one from the clock.
func NewDecisionEngine(seed int64) *DecisionEngine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DecisionEngine{
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger.AILogger,
		loggers: make(map[string]*logger.ColoredLogger),
	}
}

// Decide implements game.Decider: it routes the seat to its difficulty
// tier and returns that tier's choice.
func (e *DecisionEngine) Decide(g *game.Game, player *game.PlayerState, rules *game.Rules) (game.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	strategy := CreateStrategy(player.AIDifficulty, e.rng)
	action, err := strategy.Decide(g, player, rules)
	if err != nil {
		return game.Action{}, err
	}

	e.playerLogger(player.Username).Debug("%s strategy picked %s (round %d)",
		strategy.Name(), action.Kind, g.CurrentRound)
	return action, nil
}

// playerLogger returns the per-seat child logger, creating it on first
// use. Callers hold e.mu.
func (e *DecisionEngine) playerLogger(name string) *logger.ColoredLogger {
	l, ok := e.loggers[name]
	if !ok {
		l = logger.CreateAILogger(name, logger.ColorBrightCyan)
		e.loggers[name] = l
	}
	return l
}
