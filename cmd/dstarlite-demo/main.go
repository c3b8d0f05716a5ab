// Command dstarlite-demo runs D* Lite over the canonical 5-node chain
// graph, publishes the initial plan, then reports a single dynamic
// edge-cost change and shows the repaired plan.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/dstarlite"
	"github.com/basinwire/planner/internal/progress"
	"github.com/basinwire/planner/planner"
)

var cli struct {
	Verbose bool `help:"Enable debug logging." short:"v"`
}

// chainGraph is the 5-node chain from the library's scenario
// fixtures: 0->1(1), 1->2(1), 1->3(1), 2->4(1), 3->4(5). Edge 2->4
// jumps from cost 1 to cost 7 once Update is called.
type chainGraph struct {
	changed bool
}

func (chainGraph) Heuristic(int, int) float64 { return 0 }

func (g *chainGraph) Successors(s int) []planner.Edge[int] {
	switch s {
	case 0:
		return []planner.Edge[int]{{State: 1, Cost: 1}}
	case 1:
		return []planner.Edge[int]{{State: 2, Cost: 1}, {State: 3, Cost: 1}}
	case 2:
		if g.changed {
			return []planner.Edge[int]{{State: 4, Cost: 7}}
		}
		return []planner.Edge[int]{{State: 4, Cost: 1}}
	case 3:
		return []planner.Edge[int]{{State: 4, Cost: 5}}
	}
	return nil
}

func (g *chainGraph) Predecessors(s int) []planner.Edge[int] {
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

func (g *chainGraph) Update(int) { g.changed = true }

func main() {
	kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	ind := progress.NewIndicator(true)
	ind.Phase("D* Lite: 5-node chain")

	g := &chainGraph{}
	events := make(chan dstarlite.Event[int])
	done := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ind.Step("initial search, start=0 goal=4")
	go func() {
		done <- dstarlite.Solve[int](ctx, g, 0, 4, events, func(p dstarlite.Plan[int]) {
			ind.PlanPublished(intsToStrings(p.States), p.Reachable)
		}, dstarlite.WithLogger[int](log.Default()))
	}()

	ind.Step("reporting cost change on edge 2->4, start moves to 1")
	events <- dstarlite.Event[int]{Changed: 2, NewStart: 1}

	ind.Step("terminating")
	events <- dstarlite.Event[int]{Changed: -1, NewStart: 4}

	if err := <-done; err != nil {
		ind.Error("solve", err)
		os.Exit(1)
	}
	ind.Summary(true, "D* Lite demo complete")
}

func intsToStrings(xs []int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = fmt.Sprintf("%d", x)
	}
	return out
}
