// Package config loads and validates ralph.config.json: budgets, sandbox
// policy, tracker wiring, and the onFailure/auto-sync flags that drive the
// main loop.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/daydemir/ralph/internal/iteration"
	"github.com/daydemir/ralph/internal/sandbox"
	"github.com/daydemir/ralph/internal/task"
	"github.com/daydemir/ralph/internal/tracker"
)

// RunOptions is the subset of config governing the main loop's run-level
// budgets and behavior.
type RunOptions struct {
	MaxTasksPerRun int                    `json:"maxTasksPerRun" validate:"gte=0"`
	MaxTimePerRun  Duration               `json:"maxTimePerRun"`
	MaxCostPerRun  float64                `json:"maxCostPerRun" validate:"gte=0"`
	OnFailure      iteration.FailurePolicy `json:"onFailure" validate:"oneof=continue stop retry"`
	MaxRetries     int                    `json:"maxRetries" validate:"gte=0"`
	AutoCommit     bool                   `json:"autoCommit"`
	CommitPrefix   string                 `json:"commitPrefix"`
	LearningEnabled bool                  `json:"learningEnabled"`
	AutoApply      bool                   `json:"autoApply"`
}

// TrackerConfig mirrors tracker.Config without its auth: the file carries no
// credentials, and TrackerRegistryConfig sources them from the environment.
type TrackerConfig struct {
	Kind             string                   `json:"kind" validate:"required_with=Project"`
	Project          string                   `json:"project"`
	BaseURL          string                   `json:"baseUrl"`
	IssueTypeMap     map[task.Type]string     `json:"issueTypeMap"`
	StatusMap        map[task.Status]string   `json:"statusMap"`
	ReverseStatusMap map[string]task.Status   `json:"reverseStatusMap"`
	AutoCreate       bool                     `json:"autoCreate"`
	AutoTransition   bool                     `json:"autoTransition"`
	AutoComment      bool                     `json:"autoComment"`
	AutoPull         bool                     `json:"autoPull"`
	DryRun           bool                     `json:"dryRun"`
}

// AgentConfig names the CLI-based coding agent binary the iteration engine
// shells out to.
type AgentConfig struct {
	BinaryPath string   `json:"binaryPath"`
	Timeout    Duration `json:"timeout"`
}

// Config is the full contents of ralph.config.json.
type Config struct {
	Run     RunOptions        `json:"run"`
	Budgets iteration.Budgets `json:"budgets"`
	Sandbox sandbox.Policy    `json:"sandbox"`
	Agent   AgentConfig       `json:"agent"`
	Tracker *TrackerConfig    `json:"tracker,omitempty"`
}

// Duration unmarshals from a Go duration string ("30s", "4h") in JSON,
// since encoding/json has no native duration support.
type Duration time.Duration

func (d Duration) AsDuration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Default returns a Config with the same conservative defaults
// iteration.DefaultBudgets and sandbox.Policy{} already carry.
func Default() *Config {
	budgets := iteration.DefaultBudgets()
	return &Config{
		Run: RunOptions{
			MaxTasksPerRun: 10,
			MaxTimePerRun:  Duration(budgets.MaxTimePerRun),
			MaxCostPerRun:  budgets.MaxCostPerRun,
			OnFailure:      iteration.OnFailureContinue,
			MaxRetries:     budgets.MaxRetries,
			AutoCommit:     true,
			CommitPrefix:   "",
		},
		Budgets: budgets,
		Agent: AgentConfig{
			BinaryPath: "claude",
			Timeout:    Duration(5 * time.Minute),
		},
	}
}

var validate = validator.New()

// Load reads and validates ralph.config.json at path. A missing file
// returns Default() without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// TrackerRegistryConfig converts the file's TrackerConfig plus
// environment-sourced auth into a tracker.Config ready for tracker.New.
func (c *Config) TrackerRegistryConfig() (tracker.Config, bool) {
	if c.Tracker == nil {
		return tracker.Config{}, false
	}
	t := c.Tracker
	return tracker.Config{
		Kind:             t.Kind,
		Project:          t.Project,
		BaseURL:          t.BaseURL,
		IssueTypeMap:     t.IssueTypeMap,
		StatusMap:        t.StatusMap,
		ReverseStatusMap: t.ReverseStatusMap,
		AutoCreate:       t.AutoCreate,
		AutoTransition:   t.AutoTransition,
		AutoComment:      t.AutoComment,
		AutoPull:         t.AutoPull,
		DryRun:           t.DryRun,
		Auth:             tracker.LoadAuthFromEnv(t.Kind),
	}, true
}
