package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"gameplayer/game"
	"gameplayer/gametree"
	"gameplayer/metrics"
	"gameplayer/searcher"
	"gameplayer/tictactoe"
	"gameplayer/transposition"

	"github.com/rs/zerolog/log"
)

type player interface {
	FindBestResponse(state game.State) (game.State, error)
	Metrics() metrics.SearchMetrics
}

// A demo match: alpha-beta minimax (Alice, X) against MCTS (Bob, O) on
// tic-tac-toe.
func main() {
	depth := flag.Int("depth", 9, "Minimax search depth in plies")
	tableSize := flag.Int("table", 1<<14, "Transposition table capacity")
	goroutines := flag.Int("goroutines", 4, "Number of goroutines for parallel playouts")
	iterations := flag.Int("iterations", 2000, "Number of playouts per move")
	duration := flag.Duration("duration", 0, "Time budget per move, overrides -iterations")
	cutoff := flag.Int("cutoff", -1, "Playout depth cutoff in plies, -1 for unbounded")
	flag.Parse()

	collector := metrics.NewCollector()
	table := transposition.New(*tableSize, 100, transposition.WithCollector(collector))
	minimax := gametree.New(table, tictactoe.Evaluator{}, tictactoe.Responses, *depth,
		gametree.WithCollector(collector))

	options := []searcher.Option{
		searcher.WithGoroutines(*goroutines),
		searcher.WithTreeRetention(),
		searcher.WithCollector(metrics.NewCollector()),
	}
	if *duration > 0 {
		options = append(options, searcher.WithDuration(*duration))
	} else {
		options = append(options, searcher.WithIterations(*iterations))
	}
	if *cutoff >= 0 {
		options = append(options, searcher.WithCutoff(*cutoff))
	}
	mcts := searcher.NewMCTS(tictactoe.Responses, tictactoe.Evaluator{}, options...)

	players := map[game.PlayerID]player{
		game.Alice: minimax,
		game.Bob:   mcts,
	}

	state := game.State(tictactoe.New())
	for move := 1; ; move++ {
		p := state.Player()
		start := time.Now()
		response, err := players[p].FindBestResponse(state)
		if errors.Is(err, game.ErrNoResponses) {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}

		m := players[p].Metrics()
		log.Info().
			Int("move", move).
			Stringer("player", p).
			Dur("elapsed", time.Since(start)).
			Int("evaluations", m.Evaluations).
			Int("tableHits", m.TableHits).
			Int("episodes", m.Episodes).
			Msg("move played")
		fmt.Printf("%v\n\n", response)

		state = response
		table.Age()
	}

	if winner, over := state.(tictactoe.State).Winner(); over {
		fmt.Printf("Winner: %v\n", winner)
	} else {
		fmt.Println("Draw")
	}
}
