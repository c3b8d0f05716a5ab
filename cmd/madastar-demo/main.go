// Command madastar-demo runs MAD-A* across two in-process agents
// wired over loopback TCP via the transport package: picker 0 carries
// a package from (0,0) to the handoff cell (1,1), picker 1 continues
// it from there to (2,2).
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/internal/progress"
	"github.com/basinwire/planner/madastar"
	"github.com/basinwire/planner/planner"
	"github.com/basinwire/planner/transport"
)

var cli struct {
	Verbose bool `help:"Enable debug logging." short:"v"`
}

type coord struct{ x, y int }

// picker is a grid-restricted problem space: id 0 covers the left
// half of the warehouse floor, id 1 the right half, meeting only at
// the public handoff cell (1,1).
type picker struct{ id int }

func (picker) Heuristic(coord, coord) float64 { return 0 }

func (p picker) Successors(s coord) []planner.Edge[coord] {
	switch {
	case p.id == 0 && s == coord{0, 0}:
		return []planner.Edge[coord]{{State: coord{0, 1}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.7}}
	case p.id == 0 && s == coord{0, 1}:
		return []planner.Edge[coord]{{State: coord{0, 0}, Cost: 0.5}, {State: coord{0, 2}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.5}}
	case p.id == 0 && s == coord{0, 2}:
		return []planner.Edge[coord]{{State: coord{0, 1}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.7}}
	case p.id == 0 && s == coord{1, 1}:
		return []planner.Edge[coord]{{State: coord{0, 0}, Cost: 0.7}, {State: coord{0, 1}, Cost: 0.5}, {State: coord{0, 2}, Cost: 0.7}}
	case p.id == 1 && s == coord{1, 1}:
		return []planner.Edge[coord]{{State: coord{2, 1}, Cost: 0.5}}
	case p.id == 1 && s == coord{2, 0}:
		return []planner.Edge[coord]{{State: coord{2, 1}, Cost: 0.5}}
	case p.id == 1 && s == coord{2, 1}:
		return []planner.Edge[coord]{{State: coord{2, 0}, Cost: 0.5}, {State: coord{2, 2}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.5}}
	case p.id == 1 && s == coord{2, 2}:
		return []planner.Edge[coord]{{State: coord{2, 1}, Cost: 0.5}}
	default:
		return nil
	}
}

func (p picker) Predecessors(s coord) []planner.Edge[coord] { return p.Successors(s) }

func (picker) IsPublic(s coord) bool { return s == coord{1, 1} }

func (picker) Serialize(msgType int, s coord, params []float64) (string, error) {
	parts := []string{strconv.Itoa(msgType), strconv.Itoa(s.x), strconv.Itoa(s.y)}
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	return strings.Join(parts, ";"), nil
}

func (picker) Deserialize(msg string) (int, coord, []float64, error) {
	parts := strings.Split(msg, ";")
	msgType, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, coord{}, nil, err
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, coord{}, nil, err
	}
	y, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, coord{}, nil, err
	}
	var params []float64
	for _, p := range parts[3:] {
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, coord{}, nil, err
		}
		params = append(params, v)
	}
	return msgType, coord{x, y}, params, nil
}

var _ madastar.ProblemSpace[coord] = picker{}

func main() {
	kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	ind := progress.NewIndicator(true)
	ind.Phase("MAD-A*: two picker robots, warehouse handoff")

	const ep0, ep1 = "127.0.0.1:18781", "127.0.0.1:18782"
	a0 := transport.NewTCPAgent(ep0, transport.WithPingInterval(250*time.Millisecond))
	a1 := transport.NewTCPAgent(ep1, transport.WithPingInterval(250*time.Millisecond))
	a0.AddPeer(ep1)
	a1.AddPeer(ep0)

	ind.Step("activating transport on loopback")
	stop0, err := a0.Activate()
	if err != nil {
		ind.Error("activate picker 0", err)
		os.Exit(1)
	}
	defer stop0()

	stop1, err := a1.Activate()
	if err != nil {
		ind.Error("activate picker 1", err)
		os.Exit(1)
	}
	defer stop1()

	start, goal := coord{0, 0}, coord{2, 2}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		id   int
		plan []coord
		err  error
	}
	results := make(chan result, 2)

	ind.Step("solving concurrently, picker 0 hands off at (1,1)")
	go func() {
		plan, err := madastar.Solve[coord](ctx, a0, picker{id: 0}, start, goal, madastar.WithPollInterval[coord](10*time.Millisecond))
		results <- result{0, plan, err}
	}()
	go func() {
		plan, err := madastar.Solve[coord](ctx, a1, picker{id: 1}, start, goal, madastar.WithPollInterval[coord](10*time.Millisecond))
		results <- result{1, plan, err}
	}()

	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			ind.Error(fmt.Sprintf("picker %d", r.id), r.err)
			os.Exit(1)
		}
		ind.PlanPublished(coordsToStrings(r.plan), true)
	}

	ind.Summary(true, "MAD-A* demo complete")
}

func coordsToStrings(cs []coord) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = fmt.Sprintf("(%d,%d)", c.x, c.y)
	}
	return out
}
