package kinds

import (
	"fmt"
	"strings"

	"github.com/vk/tvtaskgraph/internal/shellscript"
	"github.com/vk/tvtaskgraph/internal/taskbuilder"
	"github.com/vk/tvtaskgraph/internal/taskdef"
	"github.com/vk/tvtaskgraph/internal/trust"
)

const defaultArtifactExpiry = "1 year"

// Worker is the decoded worker block of a declaration.
type Worker interface {
	// Kind is the value of the entry's "kind" attribute.
	Kind() string
	validate(def Definition) error
	build(b taskbuilder.Builder, def Definition, level trust.Level) (taskdef.Entry, error)
}

// DockerWorker runs a script of argument vectors on docker-worker.
type DockerWorker struct {
	MaxRunTime   int             `hcl:"max_run_time,optional"`
	Image        string          `hcl:"image,optional"`
	ChainOfTrust bool            `hcl:"chain_of_trust,optional"`
	Scopes       []string        `hcl:"scopes,optional"`
	Steps        [][]string      `hcl:"steps"`
	Artifacts    []*ArtifactSpec `hcl:"artifact,block"`
}

// ArtifactSpec declares an artifact published by a docker task.
type ArtifactSpec struct {
	Name    string `hcl:"name,label"`
	Type    string `hcl:"type"`
	Path    string `hcl:"path"`
	Expires string `hcl:"expires,optional"`
}

func (w *DockerWorker) Kind() string { return "build" }

func (w *DockerWorker) validate(Definition) error {
	if len(w.Steps) == 0 {
		return fmt.Errorf("docker worker needs at least one step")
	}
	for i, step := range w.Steps {
		if len(step) == 0 {
			return fmt.Errorf("docker worker step %d is empty", i)
		}
	}
	return nil
}

func (w *DockerWorker) build(b taskbuilder.Builder, def Definition, _ trust.Level) (taskdef.Entry, error) {
	steps := make([]shellscript.Step, len(w.Steps))
	for i, s := range w.Steps {
		steps[i] = shellscript.Step(s)
	}

	now := b.Context().Now()
	artifacts := make(map[string]taskdef.Artifact, len(w.Artifacts))
	for _, a := range w.Artifacts {
		expires := a.Expires
		if expires == "" {
			expires = defaultArtifactExpiry
		}
		artifact, err := taskdef.NewArtifact(taskdef.ArtifactType(a.Type), a.Path, expires, now)
		if err != nil {
			return taskdef.Entry{}, fmt.Errorf("artifact %q: %w", a.Name, err)
		}
		artifacts[a.Name] = artifact
	}

	return b.ShellTask(taskbuilder.ShellSpec{
		Label:        def.Label,
		Name:         def.Label,
		Description:  def.Description,
		Script:       shellscript.New(steps...),
		Scopes:       w.Scopes,
		Artifacts:    artifacts,
		ChainOfTrust: w.ChainOfTrust,
		MaxRunTime:   w.MaxRunTime,
		Image:        w.Image,
	})
}

// SigningWorker signs artifacts of an upstream dependency.
type SigningWorker struct {
	Upstream     string   `hcl:"upstream"`
	UpstreamType string   `hcl:"upstream_type,optional"`
	Paths        []string `hcl:"paths"`
	Formats      []string `hcl:"formats"`
}

func (w *SigningWorker) Kind() string { return "signing" }

func (w *SigningWorker) validate(def Definition) error {
	if len(w.Formats) == 0 {
		return fmt.Errorf("signing worker needs at least one format")
	}
	return checkUpstream(def, w.Upstream, w.Paths)
}

func (w *SigningWorker) build(b taskbuilder.Builder, def Definition, level trust.Level) (taskdef.Entry, error) {
	return b.SigningTask(taskbuilder.SigningSpec{
		Label:        def.Label,
		Name:         def.Label,
		Description:  def.Description,
		Upstream:     taskdef.Ref(w.Upstream),
		UpstreamType: w.UpstreamType,
		Paths:        w.Paths,
		Formats:      w.Formats,
	}, level), nil
}

// PushWorker pushes artifacts of an upstream dependency to an app store.
type PushWorker struct {
	Upstream     string   `hcl:"upstream"`
	UpstreamType string   `hcl:"upstream_type,optional"`
	Paths        []string `hcl:"paths"`
	Channel      string   `hcl:"channel,optional"`
	TargetStore  string   `hcl:"target_store"`
}

func (w *PushWorker) Kind() string { return "push" }

func (w *PushWorker) validate(def Definition) error {
	if w.TargetStore == "" {
		return fmt.Errorf("pushapk worker needs a target_store")
	}
	return checkUpstream(def, w.Upstream, w.Paths)
}

func (w *PushWorker) build(b taskbuilder.Builder, def Definition, level trust.Level) (taskdef.Entry, error) {
	return b.PushTask(taskbuilder.PushSpec{
		Label:        def.Label,
		Name:         def.Label,
		Description:  def.Description,
		Upstream:     taskdef.Ref(w.Upstream),
		UpstreamType: w.UpstreamType,
		Paths:        w.Paths,
		Channel:      w.Channel,
		TargetStore:  w.TargetStore,
	}, level), nil
}

// EmailWorker sends a notification once every dependency completed.
type EmailWorker struct {
	ToAddress string `hcl:"to_address,optional"`
	Subject   string `hcl:"subject"`
	Content   string `hcl:"content"`
	LinkText  string `hcl:"link_text,optional"`
	// LinkArtifact is "<dependency>/<artifact path>".
	LinkArtifact string `hcl:"link_artifact,optional"`
}

func (w *EmailWorker) Kind() string { return "email" }

func (w *EmailWorker) validate(def Definition) error {
	if w.LinkArtifact == "" {
		return nil
	}
	name, path, ok := strings.Cut(w.LinkArtifact, "/")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("link_artifact %q must have the form <dependency>/<path>", w.LinkArtifact)
	}
	if _, ok := def.Dependencies[name]; !ok {
		return fmt.Errorf("link_artifact refers to %q, which is not a dependency", name)
	}
	return nil
}

func (w *EmailWorker) build(b taskbuilder.Builder, def Definition, _ trust.Level) (taskdef.Entry, error) {
	spec := taskbuilder.EmailSpec{
		Label:       def.Label,
		Name:        def.Label,
		Description: def.Description,
		ToAddress:   w.ToAddress,
		Subject:     w.Subject,
		Content:     w.Content,
		LinkText:    w.LinkText,
	}
	if w.LinkArtifact != "" {
		name, path, _ := strings.Cut(w.LinkArtifact, "/")
		spec.LinkHref = taskdef.Ref(name, path)
	}
	return b.NotifyTask(spec), nil
}

func checkUpstream(def Definition, upstream string, paths []string) error {
	if _, ok := def.Dependencies[upstream]; !ok {
		return fmt.Errorf("upstream %q is not a dependency", upstream)
	}
	if len(paths) == 0 {
		return fmt.Errorf("at least one upstream path is required")
	}
	return nil
}
