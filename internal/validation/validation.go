package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/basinwire/planner/internal/config"
	"github.com/basinwire/planner/planner"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
	Fix     string // Suggested fix
}

func (e ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Fix != "" {
		msg += fmt.Sprintf("\n  Fix: %s", e.Fix)
	}
	return msg
}

// Result holds validation results
type Result struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no errors
func (v *Result) IsValid() bool {
	return len(v.Errors) == 0
}

// AddError adds a validation error
func (v *Result) AddError(field, message, fix string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message, Fix: fix})
}

// AddWarning adds a validation warning
func (v *Result) AddWarning(field, message, fix string) {
	v.Warnings = append(v.Warnings, ValidationError{Field: field, Message: message, Fix: fix})
}

// String formats every error and warning for a panic message or log line.
func (v *Result) String() string {
	msg := ""
	for _, e := range v.Errors {
		msg += "error: " + e.Error() + "\n"
	}
	for _, w := range v.Warnings {
		msg += "warning: " + w.Error() + "\n"
	}
	return msg
}

// CheckProblemSpace runs the cheap, general checks available at a
// solver's entry point: the heuristic doesn't return a negative value
// on the supplied probe pair, and Successors/Predecessors don't panic
// on start or goal. It cannot and does not verify full succ/pred
// symmetry across the whole state space — that remains a caller
// responsibility documented on the ProblemSpace contract.
func CheckProblemSpace[S comparable](ps planner.ProblemSpace[S], start, goal S) (result *Result) {
	result = &Result{}
	defer func() {
		if r := recover(); r != nil {
			result.AddError("problem_space", fmt.Sprintf("panicked during validation: %v", r), "check Successors/Predecessors handle start and goal")
		}
	}()

	if h := ps.Heuristic(start, goal); h < 0 {
		result.AddError("problem_space.heuristic",
			fmt.Sprintf("returned negative value %v for (start, goal)", h),
			"heuristic must be non-negative for every pair of states")
	}

	_ = ps.Successors(start)
	_ = ps.Successors(goal)
	_ = ps.Predecessors(start)
	_ = ps.Predecessors(goal)

	return result
}

// ValidateConfig validates a loaded Config.
func ValidateConfig(cfg *config.Config) *Result {
	result := &Result{}

	if cfg.MadAstar.PollInterval <= 0 {
		result.AddError("madastar.poll_interval",
			"must be positive",
			"set madastar.poll_interval to e.g. 250ms")
	}
	if cfg.MadAstar.AckTimeout <= 0 {
		result.AddError("madastar.ack_timeout",
			"must be positive",
			"set madastar.ack_timeout to e.g. 100ms")
	}
	if cfg.MadAstar.ListenAddr == "" {
		result.AddWarning("madastar.listen_addr",
			"no listen address configured",
			"set madastar.listen_addr, e.g. 127.0.0.1:7070")
	}

	if cfg.AdAstar.InitialEpsilon < 1.0 {
		result.AddError("adastar.initial_epsilon",
			"must be >= 1.0 (epsilon < 1 would make the search strictly inadmissible for no benefit)",
			"set adastar.initial_epsilon to 1.0 or higher")
	}
	if cfg.AdAstar.EpsilonStep <= 0 {
		result.AddWarning("adastar.epsilon_step",
			"zero or negative step means Refine will never lower epsilon",
			"set adastar.epsilon_step to a positive value")
	}

	if cfg.Mcts.IterationsPerStep < 1 {
		result.AddError("mcts.iterations_per_step",
			"must be at least 1",
			"set mcts.iterations_per_step to a positive number")
	}

	if cfg.Repair.MaxSteps < 1 {
		result.AddError("repair.max_steps",
			"must be at least 1",
			"set repair.max_steps to a positive number")
	}

	switch cfg.Telemetry.Backend {
	case "", "prometheus", "influx":
	default:
		result.AddError("telemetry.backend",
			fmt.Sprintf("unknown backend %q", cfg.Telemetry.Backend),
			"use one of: \"\", prometheus, influx")
	}
	if cfg.Telemetry.Backend == "influx" && cfg.Telemetry.InfluxToken == "" {
		result.AddError("telemetry.influx_token",
			"influx backend selected but no token configured",
			"set telemetry.influx_token or export the referenced env var")
	}

	if cfg.Output.Directory == "" {
		result.AddError("output.directory",
			"output directory not specified",
			"set output.directory in config")
	} else if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		result.AddError("output.directory",
			fmt.Sprintf("cannot create directory: %v", err),
			fmt.Sprintf("ensure %s is writable", cfg.Output.Directory))
	}

	return result
}

// ValidateOutputDirectory checks if output directory is usable
func ValidateOutputDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	testFile := filepath.Join(path, ".planner-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("cannot write to output directory: %w", err)
	}
	os.Remove(testFile)

	return nil
}

// PrintResult prints validation results
func PrintResult(result *Result) {
	if len(result.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range result.Errors {
			fmt.Printf("  - %s\n", err.Error())
		}
		fmt.Println()
	}

	if len(result.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, warn := range result.Warnings {
			fmt.Printf("  - %s: %s\n", warn.Field, warn.Message)
			if warn.Fix != "" {
				fmt.Printf("    suggestion: %s\n", warn.Fix)
			}
		}
		fmt.Println()
	}

	if result.IsValid() && len(result.Warnings) == 0 {
		fmt.Println("all validations passed")
	}
}
