// Package taskbuilder produces the task descriptors of every pipeline stage:
// pull-request and post-merge verification builds, release builds, signing,
// the push to the Amazon store and the release-management email.
//
// Every method is a pure function of its arguments and the Builder's Context;
// the only varying output is the timestamps taken from Context.Now.
package taskbuilder

import (
	"fmt"

	"github.com/vk/tvtaskgraph/internal/shellscript"
	"github.com/vk/tvtaskgraph/internal/taskdef"
	"github.com/vk/tvtaskgraph/internal/tcdate"
	"github.com/vk/tvtaskgraph/internal/trust"
)

const (
	dockerProvisioner = "aws-provisioner-v1"
	dockerWorkerType  = "github-worker"
	dockerImage       = "mozillamobile/firefox-tv:2.3"
	shellMaxRunTime   = 3600
	scriptMaxRunTime  = 600
	schedulerID       = "taskcluster-github"

	tokensScope = "secrets:get:project/mobile/firefox-tv/tokens"

	// SignedArtifact is the artifact name shared by the build, signing and
	// push tasks.
	SignedArtifact = "public/build/target.apk"
	storeProduct   = "firefox-tv"
	signingFormat  = "autograph_apk"
)

var taskDeadline = tcdate.MustParseOffset("1 day")

// Builder crafts task descriptors for one decision run.
type Builder struct {
	ctx Context
}

// New returns a Builder for the given context.
func New(ctx Context) Builder {
	return Builder{ctx: ctx.withDefaults()}
}

// Context returns the builder's context with defaults applied.
func (b Builder) Context() Context {
	return b.ctx
}

// ShellSpec describes a docker-worker task running a script.
type ShellSpec struct {
	Label        string
	Name         string
	Description  string
	Script       *shellscript.Script
	Scopes       []string
	Artifacts    map[string]taskdef.Artifact
	ChainOfTrust bool
	MaxRunTime   int
	Image        string
	Attributes   map[string]string
}

// ShellTask builds a docker-worker task from spec.
func (b Builder) ShellTask(spec ShellSpec) (taskdef.Entry, error) {
	if spec.Script == nil {
		return taskdef.Entry{}, fmt.Errorf("task %q: no script", spec.Name)
	}
	cmd, err := spec.Script.Command()
	if err != nil {
		return taskdef.Entry{}, fmt.Errorf("task %q: %w", spec.Name, err)
	}
	maxRunTime := spec.MaxRunTime
	if maxRunTime == 0 {
		maxRunTime = shellMaxRunTime
	}
	image := spec.Image
	if image == "" {
		image = dockerImage
	}

	task := b.baseTask(spec.Name, spec.Description)
	task.ProvisionerID = dockerProvisioner
	task.WorkerType = dockerWorkerType
	task.Scopes = append(task.Scopes, spec.Scopes...)
	task.Payload = taskdef.Payload{
		MaxRunTime: maxRunTime,
		Image:      image,
		Command:    cmd,
		Artifacts:  spec.Artifacts,
		Features: &taskdef.Features{
			TaskclusterProxy: true,
			ChainOfTrust:     spec.ChainOfTrust,
		},
	}
	return newEntry(spec.Label, spec.Attributes, task), nil
}

// SigningSpec describes a scriptworker signing task.
type SigningSpec struct {
	Label       string
	Name        string
	Description string
	// Upstream is the task id, or a "<name>" reference, of the build.
	Upstream     string
	UpstreamType string
	Paths        []string
	Formats      []string
	Attributes   map[string]string
}

// SigningTask builds a signing task whose pool and scopes come from level.
func (b Builder) SigningTask(spec SigningSpec, level trust.Level) taskdef.Entry {
	task := b.baseTask(spec.Name, spec.Description)
	task.ProvisionerID = trust.ScriptworkerProvisioner
	task.WorkerType = level.SigningWorkerType()
	task.Scopes = level.SigningScopes(spec.Formats...)
	if _, _, ref := taskdef.ParseRef(spec.Upstream); !ref {
		task.Dependencies = []string{spec.Upstream}
	}
	task.Payload = taskdef.Payload{
		MaxRunTime: scriptMaxRunTime,
		UpstreamArtifacts: []taskdef.UpstreamArtifact{{
			TaskID:   spec.Upstream,
			TaskType: upstreamType(spec.UpstreamType),
			Paths:    spec.Paths,
			Formats:  spec.Formats,
		}},
	}
	return newEntry(spec.Label, withTrust(spec.Attributes, level), task)
}

// PushSpec describes a scriptworker push-to-store task.
type PushSpec struct {
	Label        string
	Name         string
	Description  string
	Upstream     string
	UpstreamType string
	Paths        []string
	Channel      string
	TargetStore  string
	Attributes   map[string]string
}

// PushTask builds a push-to-store task whose pool and scopes come from level.
func (b Builder) PushTask(spec PushSpec, level trust.Level) taskdef.Entry {
	channel := spec.Channel
	if channel == "" {
		channel = b.ctx.StoreChannel
	}
	task := b.baseTask(spec.Name, spec.Description)
	task.ProvisionerID = trust.ScriptworkerProvisioner
	task.WorkerType = level.PushWorkerType()
	task.Scopes = level.PushScopes(storeProduct)
	if _, _, ref := taskdef.ParseRef(spec.Upstream); !ref {
		task.Dependencies = []string{spec.Upstream}
	}
	task.Payload = taskdef.Payload{
		TargetStore: spec.TargetStore,
		Channel:     channel,
		UpstreamArtifacts: []taskdef.UpstreamArtifact{{
			TaskID:   spec.Upstream,
			TaskType: upstreamType(spec.UpstreamType),
			Paths:    spec.Paths,
		}},
	}
	return newEntry(spec.Label, withTrust(spec.Attributes, level), task)
}

// EmailSpec describes a notification-only task.
type EmailSpec struct {
	Label        string
	Name         string
	Description  string
	ToAddress    string
	Subject      string
	Content      string
	LinkText     string
	LinkHref     string
	Dependencies []string
	Attributes   map[string]string
}

// NotifyTask builds a task with an empty payload that runs on the built-in
// succeed worker; its only effect is the email sent when it completes.
func (b Builder) NotifyTask(spec EmailSpec) taskdef.Entry {
	to := spec.ToAddress
	if to == "" {
		to = b.ctx.NotifyAddress
	}
	route := fmt.Sprintf("notify.email.%s.on-completed", to)

	task := b.baseTask(spec.Name, spec.Description)
	task.ProvisionerID = "built-in"
	task.WorkerType = "succeed"
	task.Scopes = []string{"queue:route:" + route}
	task.Routes = []string{route}
	task.Dependencies = append([]string(nil), spec.Dependencies...)

	notice := taskdef.EmailNotice{Subject: spec.Subject, Content: spec.Content}
	if spec.LinkHref != "" {
		notice.Link = &taskdef.EmailLink{Text: spec.LinkText, Href: spec.LinkHref}
	}
	task.Extra = &taskdef.Extra{Notify: &taskdef.Notify{Email: notice}}
	return newEntry(spec.Label, spec.Attributes, task)
}

// ArtifactURL is the public URL of an artifact of taskID.
func (b Builder) ArtifactURL(taskID, name string) string {
	return fmt.Sprintf("%s/task/%s/artifacts/%s", b.ctx.QueueRootURL, taskID, name)
}

func (b Builder) baseTask(name, description string) taskdef.Task {
	now := b.ctx.Now()
	return taskdef.Task{
		TaskGroupID: b.ctx.TaskGroupID,
		SchedulerID: schedulerID,
		Created:     tcdate.Format(now),
		Deadline:    tcdate.Format(taskDeadline.From(now)),
		Scopes:      []string{},
		Metadata: taskdef.Metadata{
			Name:        name,
			Description: description,
			Owner:       b.ctx.Owner,
			Source:      b.ctx.source(),
		},
	}
}

func newEntry(label string, attrs map[string]string, task taskdef.Task) taskdef.Entry {
	if label == "" {
		label = task.Metadata.Name
	}
	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return taskdef.Entry{
		Label:        label,
		Attributes:   copied,
		Dependencies: map[string]string{},
		Task:         task,
	}
}

func withTrust(attrs map[string]string, level trust.Level) map[string]string {
	out := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out[taskdef.AttrTrustLevel] = level.String()
	return out
}

func upstreamType(t string) string {
	if t == "" {
		return "build"
	}
	return t
}
