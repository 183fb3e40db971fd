package decision

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tvtaskgraph/internal/schedule"
	"github.com/vk/tvtaskgraph/internal/taskbuilder"
	"github.com/vk/tvtaskgraph/internal/taskdef"
	"github.com/vk/tvtaskgraph/internal/trust"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testBuilderContext(repo string) taskbuilder.Context {
	return taskbuilder.Context{
		RepoURL:     repo,
		Commit:      "abc123",
		TaskGroupID: "group",
		Now:         func() time.Time { return fixedNow },
	}
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

func TestPlan_PullRequest(t *testing.T) {
	batch, err := Plan(testBuilderContext("https://github.com/someone/firefox-tv"),
		Event{Command: CommandPullRequest, Author: "dev@example.com", Branch: "feature-x"}, counter())
	require.NoError(t, err)

	require.Len(t, batch, 1)
	assert.Equal(t, "task-1", batch[0].ID)
	assert.Equal(t, taskbuilder.LabelPullRequest, batch[0].Entry.Label)
	assert.Equal(t, "dev@example.com", batch[0].Entry.Task.Metadata.Owner)
	assert.Contains(t, batch[0].Entry.Task.Payload.Command[3], "feature-x")
}

func TestPlan_PostMerge(t *testing.T) {
	testCases := []struct {
		command Command
		label   string
	}{
		{CommandMaster, taskbuilder.LabelMaster},
		{CommandLanded, taskbuilder.LabelLanded},
	}
	for _, tc := range testCases {
		t.Run(string(tc.command), func(t *testing.T) {
			batch, err := Plan(testBuilderContext(trust.UpstreamRepository),
				Event{Command: tc.command, Author: "dev@example.com"}, counter())
			require.NoError(t, err)
			require.Len(t, batch, 1)
			assert.Equal(t, tc.label, batch[0].Entry.Label)
			assert.Equal(t, "dev@example.com", batch[0].Entry.Task.Metadata.Owner)
		})
	}
}

func TestPlan_Release(t *testing.T) {
	batch, err := Plan(testBuilderContext(trust.UpstreamRepository),
		Event{Command: CommandRelease, Author: "ignored@example.com", Tag: "v1.0"}, counter())
	require.NoError(t, err)
	require.Len(t, batch, 4)

	build, sign, push, email := batch[0], batch[1], batch[2], batch[3]
	assert.Equal(t, []string{"build", "sign", "push", "email"},
		[]string{build.Entry.Label, sign.Entry.Label, push.Entry.Label, email.Entry.Label})

	for _, s := range batch {
		assert.Equal(t, taskbuilder.DefaultNotifyAddress, s.Entry.Task.Metadata.Owner, s.Entry.Label)
	}

	assert.Contains(t, build.Entry.Task.Payload.Command[3], "git checkout v1.0")
	assert.True(t, build.Entry.Task.Payload.Features.ChainOfTrust)

	assert.Equal(t, []string{build.ID}, sign.Entry.Task.Dependencies)
	assert.Equal(t, []string{build.ID}, push.Entry.Task.Dependencies)
	assert.Equal(t, []string{sign.ID, push.ID}, email.Entry.Task.Dependencies)
	assert.True(t, strings.Contains(email.Entry.Task.Extra.Notify.Email.Link.Href, "/task/"+sign.ID+"/artifacts/"))

	// The same trust level drives signing and push.
	assert.Equal(t, "mobile-signing-v1", sign.Entry.Task.WorkerType)
	assert.Equal(t, "mobile-pushapk-v1", push.Entry.Task.WorkerType)
	assert.Equal(t, sign.Entry.Attributes[taskdef.AttrTrustLevel], push.Entry.Attributes[taskdef.AttrTrustLevel])

	require.NoError(t, schedule.Validate(batch))
}

func TestPlan_ReleaseFromFork(t *testing.T) {
	batch, err := Plan(testBuilderContext("https://github.com/someone/firefox-tv"),
		Event{Command: CommandRelease, Tag: "v1.0"}, counter())
	require.NoError(t, err)

	assert.Equal(t, "mobile-signing-dep-v1", batch[1].Entry.Task.WorkerType)
	assert.Equal(t, "mobile-pushapk-dep-v1", batch[2].Entry.Task.WorkerType)
}

func TestPlan_ReleaseBuildOnly(t *testing.T) {
	batch, err := Plan(testBuilderContext(trust.UpstreamRepository),
		Event{Command: CommandRelease, Tag: "v1.0", BuildOnly: true}, counter())
	require.NoError(t, err)

	require.Len(t, batch, 1)
	assert.Equal(t, taskbuilder.LabelRelease, batch[0].Entry.Label)
	assert.False(t, batch[0].Entry.Task.Payload.Features.ChainOfTrust)
	assert.Equal(t, trust.Production.String(), batch[0].Entry.Attributes[taskdef.AttrTrustLevel])
}

func TestPlan_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		event   Event
		wantErr string
	}{
		{"unknown command", Event{Command: "deploy"}, "unknown decision event"},
		{"missing command", Event{}, "unknown decision event"},
		{"release without tag", Event{Command: CommandRelease}, "needs a tag"},
		{"pull request without branch", Event{Command: CommandPullRequest, Author: "a"}, "needs a branch"},
		{"branch named like the script terminator", Event{Command: CommandPullRequest, Author: "a", Branch: "SCRIPT"}, "SCRIPT"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(testBuilderContext(trust.UpstreamRepository), tc.event, counter())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPlan_UnknownCommandIsSentinel(t *testing.T) {
	_, err := Plan(testBuilderContext(trust.UpstreamRepository), Event{Command: "deploy"}, counter())
	assert.ErrorIs(t, err, ErrUnknownEvent)
}
