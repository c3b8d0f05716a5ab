package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DStarLite DStarLiteConfig `yaml:"dstarlite"`
	AdAstar   AdAstarConfig   `yaml:"adastar"`
	MadAstar  MadAstarConfig  `yaml:"madastar"`
	Mcts      MctsConfig      `yaml:"mcts"`
	Repair    RepairConfig    `yaml:"repair"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Output    OutputConfig    `yaml:"output"`
}

// DStarLiteConfig holds D* Lite settings. The algorithm itself has no
// tunables beyond what's passed at the Solve call site; this struct
// exists so the section appears in the config file and can grow one.
type DStarLiteConfig struct{}

// AdAstarConfig holds Anytime Dynamic A* settings.
type AdAstarConfig struct {
	InitialEpsilon float64 `yaml:"initial_epsilon"`
	EpsilonStep    float64 `yaml:"epsilon_step"`
}

// MadAstarConfig holds MAD-A* forward-search and transport settings.
type MadAstarConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	AckTimeout   time.Duration `yaml:"ack_timeout"`
	ListenAddr   string        `yaml:"listen_addr"`
}

// MctsConfig holds Monte Carlo Tree Search settings.
type MctsConfig struct {
	CUCT              float64 `yaml:"c_uct"`
	IterationsPerStep int     `yaml:"iterations_per_step"`
}

// RepairConfig holds iterative repair settings.
type RepairConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

// TelemetryConfig selects and configures an optional metrics sink.
type TelemetryConfig struct {
	Backend        string `yaml:"backend"` // "", "prometheus", "influx"
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
	InfluxURL      string `yaml:"influx_url"`
	InfluxToken    string `yaml:"influx_token"` // supports ${ENV_VAR} interpolation
	InfluxOrg      string `yaml:"influx_org"`
	InfluxBucket   string `yaml:"influx_bucket"`
}

// OutputConfig holds output settings for the example CLIs.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Verbose   bool   `yaml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AdAstar: AdAstarConfig{
			InitialEpsilon: 2.0,
			EpsilonStep:    0.5,
		},
		MadAstar: MadAstarConfig{
			PollInterval: 250 * time.Millisecond,
			AckTimeout:   100 * time.Millisecond,
			ListenAddr:   "127.0.0.1:7070",
		},
		Mcts: MctsConfig{
			CUCT:              1.0,
			IterationsPerStep: 1000,
		},
		Repair: RepairConfig{
			MaxSteps: 100,
		},
		Telemetry: TelemetryConfig{
			Backend: "",
		},
		Output: OutputConfig{
			Directory: "./output",
			Verbose:   false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the config
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ExampleConfig returns a commented example config
func ExampleConfig() string {
	return `# Planner Configuration File
# Unset keys keep their defaults; ${VAR} references are expanded from the environment before parsing

adastar:
  # Inflation factor for the first published plan.
  initial_epsilon: 2.0
  # Amount Refine lowers epsilon by each call in a refinement loop.
  epsilon_step: 0.5

madastar:
  # Forward-search poll/expand/sleep cadence.
  poll_interval: 250ms
  # How long a peer has to ack a ping before being dropped.
  ack_timeout: 100ms
  # Where this agent's reference transport listens.
  listen_addr: 127.0.0.1:7070

mcts:
  # Exploration constant for UCB1; 0 disables exploration.
  c_uct: 1.0
  # Simulation budget spent per committed step.
  iterations_per_step: 1000

repair:
  # Give up and report unsolved after this many repair steps.
  max_steps: 100

telemetry:
  # Backend: "", "prometheus", or "influx"
  backend: ""
  pushgateway_url: http://localhost:9091
  job: planner
  influx_url: http://localhost:8086
  influx_token: ${INFLUX_TOKEN}
  influx_org: planner
  influx_bucket: solver-metrics

output:
  # Directory for demo CLI run artifacts
  directory: ./output
  verbose: false
`
}
