package decision

import (
	"errors"
	"fmt"

	"github.com/vk/tvtaskgraph/internal/schedule"
	"github.com/vk/tvtaskgraph/internal/taskbuilder"
	"github.com/vk/tvtaskgraph/internal/taskdef"
)

// ErrUnknownEvent is returned for commands and events that have no task set.
var ErrUnknownEvent = errors.New("unknown decision event")

// Command names a standalone decision.
type Command string

const (
	CommandPullRequest Command = "pull-request"
	CommandMaster      Command = "master"
	CommandLanded      Command = "landed"
	CommandRelease     Command = "release"
)

// Event is what triggered a standalone decision run.
type Event struct {
	Command Command
	// Author owns the tasks of pull-request, master and landed runs.
	Author string
	// Branch is the pull request's head branch.
	Branch string
	// Tag is the release tag.
	Tag string
	// BuildOnly schedules a release build without signing, push or email.
	BuildOnly bool
}

// Plan returns the ordered batch for ev. Each entry gets an id from newID
// before any descriptor is built.
func Plan(bctx taskbuilder.Context, ev Event, newID func() string) ([]schedule.Scheduled, error) {
	switch ev.Command {
	case CommandPullRequest:
		if ev.Branch == "" {
			return nil, errors.New("pull-request needs a branch")
		}
		bctx.Owner = ev.Author
		return single(newID, func() (taskdef.Entry, error) {
			return taskbuilder.New(bctx).PullRequestTask(ev.Branch)
		})
	case CommandMaster:
		bctx.Owner = ev.Author
		return single(newID, taskbuilder.New(bctx).MasterTask)
	case CommandLanded:
		bctx.Owner = ev.Author
		return single(newID, taskbuilder.New(bctx).LandedTask)
	case CommandRelease:
		if ev.Tag == "" {
			return nil, errors.New("release needs a tag")
		}
		return release(bctx, ev, newID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Command)
	}
}

func single(newID func() string, craft func() (taskdef.Entry, error)) ([]schedule.Scheduled, error) {
	id := newID()
	entry, err := craft()
	if err != nil {
		return nil, err
	}
	return []schedule.Scheduled{{ID: id, Entry: entry}}, nil
}

// release owns its tasks by the notification address, so release
// management is the owner of record.
func release(bctx taskbuilder.Context, ev Event, newID func() string) ([]schedule.Scheduled, error) {
	b := taskbuilder.New(bctx)
	ctx := b.Context()
	ctx.Owner = ctx.NotifyAddress
	b = taskbuilder.New(ctx)

	if ev.BuildOnly {
		return single(newID, func() (taskdef.Entry, error) { return b.ReleaseTask(ev.Tag) })
	}

	level := ctx.Trust()
	buildID, signID, pushID, emailID := newID(), newID(), newID(), newID()

	build, err := b.ReleaseBuildTask(ev.Tag)
	if err != nil {
		return nil, err
	}
	sign := b.SignForGithubTask(buildID, level)
	push := b.AmazonTask(buildID, level)
	email := b.EmailTask(signID, pushID, ev.Tag)

	return []schedule.Scheduled{
		{ID: buildID, Entry: build},
		{ID: signID, Entry: sign},
		{ID: pushID, Entry: push},
		{ID: emailID, Entry: email},
	}, nil
}
