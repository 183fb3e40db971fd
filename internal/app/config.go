package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/tvtaskgraph/internal/decision"
	"github.com/vk/tvtaskgraph/internal/taskbuilder"
	"github.com/vk/tvtaskgraph/internal/taskcluster"
)

// Commands that are not standalone decision events.
const (
	CommandGraph       = "graph"
	CommandBitbarToken = "bitbar-token"
)

// Defaults for optional settings.
const (
	DefaultKindsPath = "taskcluster/kinds"
	DefaultOutputDir = "."
	DefaultLevel     = 1
)

// Config holds everything one invocation needs.
type Config struct {
	Command string
	// Event is the standalone decision event; unused by graph and
	// bitbar-token.
	Event decision.Event

	KindsPath      string
	ParametersPath string

	TaskGroupID    string // TASK_ID
	HeadRepository string // MOBILE_HEAD_REPOSITORY
	HeadRev        string // MOBILE_HEAD_REV
	HeadRef        string // MOBILE_HEAD_REF
	HeadTag        string // MOBILE_HEAD_TAG
	TasksFor       string // TASKS_FOR
	Owner          string
	Level          int

	ProxyURL      string
	NotifyAddress string
	QueueRootURL  string

	OutputDir string
	DryRun    bool
	LogFormat string
	LogLevel  string
}

// NewConfig applies defaults and validates cfg for its command.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProxyURL == "" {
		cfg.ProxyURL = taskcluster.DefaultProxyURL
	}
	if cfg.NotifyAddress == "" {
		cfg.NotifyAddress = taskbuilder.DefaultNotifyAddress
	}
	if cfg.QueueRootURL == "" {
		cfg.QueueRootURL = taskbuilder.DefaultQueueRootURL
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	switch cfg.Command {
	case "":
		return nil, errors.New("a command must be provided to the decision task")
	case CommandBitbarToken:
		return &cfg, nil
	case CommandGraph:
		if cfg.KindsPath == "" {
			cfg.KindsPath = DefaultKindsPath
		}
		if cfg.Level == 0 {
			cfg.Level = DefaultLevel
		}
		if cfg.Level < 1 || cfg.Level > 3 {
			return nil, fmt.Errorf("level must be between 1 and 3, got %d", cfg.Level)
		}
		required := map[string]string{"TASK_ID": cfg.TaskGroupID}
		if cfg.ParametersPath == "" {
			required["MOBILE_HEAD_REPOSITORY"] = cfg.HeadRepository
			required["MOBILE_HEAD_REV"] = cfg.HeadRev
			required["TASKS_FOR"] = cfg.TasksFor
		}
		if err := requireEnv(required); err != nil {
			return nil, err
		}
		return &cfg, nil
	case string(decision.CommandPullRequest), string(decision.CommandMaster),
		string(decision.CommandLanded), string(decision.CommandRelease):
		cfg.Event.Command = decision.Command(cfg.Command)
		err := requireEnv(map[string]string{
			"TASK_ID":                cfg.TaskGroupID,
			"MOBILE_HEAD_REPOSITORY": cfg.HeadRepository,
			"MOBILE_HEAD_REV":        cfg.HeadRev,
		})
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func requireEnv(values map[string]string) error {
	var missing []string
	for _, name := range []string{"TASK_ID", "MOBILE_HEAD_REPOSITORY", "MOBILE_HEAD_REV", "TASKS_FOR"} {
		if v, ok := values[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
