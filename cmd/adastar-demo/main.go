// Command adastar-demo runs Anytime Dynamic A* over the same 5-node
// chain graph under an inflated epsilon, then refines toward
// optimality by lowering epsilon and re-expanding.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/adastar"
	"github.com/basinwire/planner/internal/progress"
	"github.com/basinwire/planner/planner"
)

var cli struct {
	Verbose bool    `help:"Enable debug logging." short:"v"`
	Epsilon float64 `help:"Initial inflation factor." default:"2.0"`
}

type chainGraph struct{}

func (chainGraph) Heuristic(int, int) float64 { return 1 }

func (chainGraph) Successors(s int) []planner.Edge[int] {
	switch s {
	case 0:
		return []planner.Edge[int]{{State: 1, Cost: 1}}
	case 1:
		return []planner.Edge[int]{{State: 2, Cost: 1}, {State: 3, Cost: 1}}
	case 2:
		return []planner.Edge[int]{{State: 4, Cost: 1}}
	case 3:
		return []planner.Edge[int]{{State: 4, Cost: 5}}
	}
	return nil
}

func (chainGraph) Predecessors(s int) []planner.Edge[int] {
	switch s {
	case 1:
		return []planner.Edge[int]{{State: 0, Cost: 1}}
	case 2:
		return []planner.Edge[int]{{State: 1, Cost: 1}}
	case 3:
		return []planner.Edge[int]{{State: 1, Cost: 1}}
	case 4:
		return []planner.Edge[int]{{State: 2, Cost: 1}, {State: 3, Cost: 5}}
	}
	return nil
}

func main() {
	kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	ind := progress.NewIndicator(true)
	ind.Phase("Anytime Dynamic A*: 5-node chain")

	g := chainGraph{}

	ind.Step(fmt.Sprintf("initial bounded-suboptimal search, eps=%.1f", cli.Epsilon))
	solver := adastar.Solve[int](g, 0, 4, func(p adastar.Plan[int]) {
		ind.PlanPublished(intsToStrings(p.States), p.Complete)
	}, adastar.WithInitialEpsilon[int](cli.Epsilon), adastar.WithLogger[int](log.Default()))

	ind.Step("refining toward optimality, eps=1.0")
	solver.Refine(1.0, func(p adastar.Plan[int]) {
		ind.PlanPublished(intsToStrings(p.States), p.Complete)
	})

	ind.Summary(true, "AD-A* demo complete")
	os.Exit(0)
}

func intsToStrings(xs []int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = fmt.Sprintf("%d", x)
	}
	return out
}
