package decision

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/tvtaskgraph/internal/kinds"
)

// Events understood in graph mode.
const (
	TasksForPullRequest = "github-pull-request"
	TasksForPush        = "github-push"
	TasksForRelease     = "github-release"
)

// Release types.
const (
	ReleaseTypeProduction = "production"
	ReleaseTypeLAT        = kinds.ReleaseTypeLAT
)

// defaultBranch is the only branch whose pushes are scheduled.
const defaultBranch = "master"

// Parameters drive a graph-mode run and are written to parameters.yml.
type Parameters struct {
	TasksFor          string `yaml:"tasks_for"`
	HeadRepository    string `yaml:"head_repository"`
	HeadRev           string `yaml:"head_rev"`
	HeadRef           string `yaml:"head_ref"`
	HeadTag           string `yaml:"head_tag"`
	Owner             string `yaml:"owner"`
	Level             int    `yaml:"level"`
	ReleaseType       string `yaml:"release_type,omitempty"`
	TargetTasksMethod string `yaml:"target_tasks_method"`
}

// LoadParameters reads parameters from a YAML file.
func LoadParameters(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to read parameters: %w", err)
	}
	var p Parameters
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Parameters{}, fmt.Errorf("failed to parse parameters %s: %w", path, err)
	}
	return p, nil
}

// Derive fills the values that follow from the event: releases whose tag
// mentions LAT are "lat" releases, every other release is "production", and
// the target method follows the release type.
func (p Parameters) Derive() Parameters {
	p.TargetTasksMethod = "default"
	if p.TasksFor == TasksForRelease {
		p.ReleaseType = ReleaseTypeProduction
		if strings.Contains(p.HeadTag, "LAT") {
			p.ReleaseType = ReleaseTypeLAT
		}
		p.TargetTasksMethod = p.ReleaseType
	}
	return p
}

// Schedules reports whether the event schedules anything. Pushes to branches
// other than master schedule nothing; unknown events are an error.
func (p Parameters) Schedules() (bool, error) {
	switch p.TasksFor {
	case TasksForPullRequest, TasksForRelease:
		return true, nil
	case TasksForPush:
		return strings.TrimPrefix(p.HeadRef, "refs/heads/") == defaultBranch, nil
	default:
		return false, fmt.Errorf("%w: tasks_for %q", ErrUnknownEvent, p.TasksFor)
	}
}

// Variables exposes the parameters to task files.
func (p Parameters) Variables() kinds.Variables {
	return kinds.Variables{
		HeadRepository: p.HeadRepository,
		HeadRev:        p.HeadRev,
		HeadRef:        p.HeadRef,
		HeadTag:        p.HeadTag,
		Owner:          p.Owner,
		ReleaseType:    p.ReleaseType,
		TasksFor:       p.TasksFor,
		Level:          p.Level,
	}
}
