// Command mcts-demo runs Monte Carlo Tree Search over a 6-node reward
// graph with three routes from 1 to 6, showing the step committed after
// each iteration budget.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/internal/progress"
	"github.com/basinwire/planner/mcts"
	"github.com/basinwire/planner/planner"
)

var cli struct {
	Verbose    bool `help:"Enable debug logging." short:"v"`
	Iterations int  `help:"Simulation budget per committed step." default:"200"`
}

// rewardGraph offers three routes from 1 to 6: the cheapest through 3
// and 5 (cost 3.0), one through 3 and 4 (3.3), and the costliest
// through 2 and 4 (3.6).
type rewardGraph struct{}

func (rewardGraph) Heuristic(int, int) float64 { panic("not used by mcts") }

func (rewardGraph) Successors(s int) []planner.Edge[int] {
	switch s {
	case 1:
		return []planner.Edge[int]{{State: 2, Cost: 0.8}, {State: 3, Cost: 1.0}}
	case 2:
		return []planner.Edge[int]{{State: 4, Cost: 1.0}}
	case 3:
		return []planner.Edge[int]{{State: 4, Cost: 0.5}, {State: 5, Cost: 1.0}}
	case 4:
		return []planner.Edge[int]{{State: 5, Cost: 0.8}}
	case 5:
		return []planner.Edge[int]{{State: 6, Cost: 1.0}}
	}
	return nil
}

func (rewardGraph) Predecessors(int) []planner.Edge[int] { panic("not used by mcts") }

func main() {
	kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	ind := progress.NewIndicator(true)
	ind.Phase("Monte Carlo Tree Search: 6-node reward graph")

	g := rewardGraph{}

	ind.Step(fmt.Sprintf("simulating with %d iterations per step", cli.Iterations))
	res, err := mcts.Solve[int](g, 1, 6, func(s int) {
		ind.Info(fmt.Sprintf("committed to state %d", s))
	}, mcts.WithIterations[int](cli.Iterations), mcts.WithLogger[int](log.Default()))
	if err != nil {
		ind.Error("solve", err)
		os.Exit(1)
	}

	ind.Summary(true, fmt.Sprintf("reached %d", res))
}
