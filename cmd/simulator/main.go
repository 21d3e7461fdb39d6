package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"hanyang/internal/ai"
	"hanyang/internal/game"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

var (
	numGames     = flag.Int("games", 10, "number of games to run")
	numPlayers   = flag.Int("players", 4, "number of AI players per game (2-4)")
	difficulties = flag.String("difficulties", "hard,medium,easy,medium", "comma-separated difficulty per seat, cycled")
	rounds       = flag.Int("rounds", game.DefaultTotalRounds, "rounds per game")
	seed         = flag.Int64("seed", 0, "base RNG seed (0 picks one from the clock)")
	concurrent   = flag.Bool("concurrent", false, "run games concurrently")
	logLevel     = flag.String("log-level", "warn", "log level: debug, info, warn, error")
	showCaller   = flag.Bool("show-caller", false, "show caller information in logs")
)

var simLogger = logger.NewColoredLogger("SIM", logger.ColorBrightYellow)

// gameOutcome is one finished game's contribution to the aggregates.
type gameOutcome struct {
	GameID   string
	Turns    int
	Duration time.Duration
	Scores   []game.FinalScore
	Seats    map[int64]game.AIDifficulty
	Err      error
}

// difficultyStats aggregates results per difficulty tier.
type difficultyStats struct {
	Seats      int
	Wins       int
	TotalScore int
	BestScore  int
}

// nopBroadcaster discards events: the simulator has no observers.
type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, *protocol.Message, int64) {}
func (nopBroadcaster) Send(string, int64, *protocol.Message) bool { return false }

func main() {
	flag.Parse()

	if *numPlayers < game.MinPlayers || *numPlayers > game.MaxPlayers {
		fmt.Printf("players must be between %d and %d\n", game.MinPlayers, game.MaxPlayers)
		os.Exit(1)
	}

	logger.InitLoggers(logger.ParseLevel(*logLevel), *showCaller)
	simLogger.SetLevel(logger.ParseLevel(*logLevel))

	baseSeed := *seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}
	tiers := parseDifficulties(*difficulties)

	simLogger.Info("Running %d games: %d AI players, %d rounds, seed %d", *numGames, *numPlayers, *rounds, baseSeed)

	start := time.Now()
	outcomes := make([]gameOutcome, *numGames)

	if *concurrent {
		var wg sync.WaitGroup
		sem := make(chan struct{}, 4)
		for i := 0; i < *numGames; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				outcomes[n] = runGame(n, baseSeed+int64(n), tiers)
			}(i)
		}
		wg.Wait()
	} else {
		for i := 0; i < *numGames; i++ {
			outcomes[i] = runGame(i, baseSeed+int64(i), tiers)
		}
	}

	printReport(outcomes, time.Since(start))
}

// runGame plays one full AI-vs-AI game in process over the in-memory
// store and returns its outcome.
func runGame(n int, seed int64, tiers []game.AIDifficulty) gameOutcome {
	start := time.Now()

	engine := game.NewEngine(game.DefaultRules(), game.NewMemStore(), nopBroadcaster{}, ai.NewDecisionEngine(seed), game.Options{
		TotalRounds:      *rounds,
		AutoPlayMaxTurns: 10000,
		Seed:             seed,
	})

	seats := make([]game.Seat, 0, *numPlayers)
	seatTiers := make(map[int64]game.AIDifficulty, *numPlayers)
	colors := []string{"blue", "red", "green", "yellow"}
	for i := 0; i < *numPlayers; i++ {
		tier := tiers[i%len(tiers)]
		userID := int64(-(i + 1))
		seats = append(seats, game.Seat{
			UserID:       userID,
			Username:     fmt.Sprintf("%s_%d", tier, i+1),
			Color:        colors[i%len(colors)],
			IsHost:       i == 0,
			IsAI:         true,
			AIDifficulty: tier,
		})
		seatTiers[userID] = tier
	}

	ctx := context.Background()
	g, err := engine.Create(ctx, "", seats)
	if err != nil {
		return gameOutcome{Err: fmt.Errorf("create game %d: %w", n, err)}
	}

	result, err := engine.AutoPlay(ctx, g.ID, 0, 10000)
	if err != nil {
		return gameOutcome{GameID: g.ID, Err: fmt.Errorf("auto-play game %d: %w", n, err)}
	}
	if result.GameStatus != game.StatusFinished {
		return gameOutcome{GameID: g.ID, Err: fmt.Errorf("game %d stopped unfinished after %d turns", n, result.TurnsExecuted)}
	}

	final, err := engine.Result(ctx, g.ID)
	if err != nil {
		return gameOutcome{GameID: g.ID, Err: fmt.Errorf("result of game %d: %w", n, err)}
	}

	simLogger.Info("Game %d finished in %d turns, winner %s", n+1, result.TurnsExecuted, final.Rankings[0].Username)

	return gameOutcome{
		GameID:   g.ID,
		Turns:    result.TurnsExecuted,
		Duration: time.Since(start),
		Scores:   final.Rankings,
		Seats:    seatTiers,
	}
}

func parseDifficulties(s string) []game.AIDifficulty {
	var tiers []game.AIDifficulty
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tiers = append(tiers, game.ParseAIDifficulty(part))
	}
	if len(tiers) == 0 {
		tiers = []game.AIDifficulty{game.DifficultyMedium}
	}
	return tiers
}

func printReport(outcomes []gameOutcome, elapsed time.Duration) {
	perTier := make(map[game.AIDifficulty]*difficultyStats)
	completed, failed, totalTurns := 0, 0, 0

	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			simLogger.Error("%v", o.Err)
			continue
		}
		completed++
		totalTurns += o.Turns

		for i, s := range o.Scores {
			tier := o.Seats[s.UserID]
			st := perTier[tier]
			if st == nil {
				st = &difficultyStats{}
				perTier[tier] = st
			}
			st.Seats++
			st.TotalScore += s.TotalScore
			if s.TotalScore > st.BestScore {
				st.BestScore = s.TotalScore
			}
			if i == 0 {
				st.Wins++
			}
		}
	}

	fmt.Println()
	fmt.Println("=== Simulation Report ===")
	fmt.Printf("Games:     %d completed, %d failed in %v\n", completed, failed, elapsed.Round(time.Millisecond))
	if completed > 0 {
		fmt.Printf("Avg turns: %.1f per game\n", float64(totalTurns)/float64(completed))
	}
	fmt.Println()

	tiers := make([]game.AIDifficulty, 0, len(perTier))
	for tier := range perTier {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })

	fmt.Printf("%-10s %6s %6s %9s %10s %10s\n", "TIER", "SEATS", "WINS", "WIN RATE", "AVG SCORE", "BEST")
	for _, tier := range tiers {
		st := perTier[tier]
		winRate := 0.0
		if st.Seats > 0 {
			winRate = 100 * float64(st.Wins) / float64(st.Seats)
		}
		fmt.Printf("%-10s %6d %6d %8.1f%% %10.1f %10d\n",
			tier, st.Seats, st.Wins, winRate, float64(st.TotalScore)/float64(st.Seats), st.BestScore)
	}
}
