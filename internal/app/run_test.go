package app_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tvtaskgraph/internal/app"
	"github.com/vk/tvtaskgraph/internal/decision"
	"github.com/vk/tvtaskgraph/internal/graphfile"
	"github.com/vk/tvtaskgraph/internal/testutil"
	"github.com/vk/tvtaskgraph/internal/trust"
	"gopkg.in/yaml.v3"
)

func sequentialIDs() app.Option {
	n := 0
	return app.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	})
}

func releaseConfig() app.Config {
	return app.Config{
		Command:        "release",
		Event:          decision.Event{Tag: "v1.0"},
		TaskGroupID:    "group",
		HeadRepository: trust.UpstreamRepository,
		HeadRev:        "abc123",
	}
}

func readGraph(t *testing.T, dir string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, graphfile.TaskGraphFile))
	require.NoError(t, err)
	var graph map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &graph))
	return graph
}

func TestRun_Release(t *testing.T) {
	res := testutil.RunDecision(t, releaseConfig(), nil, sequentialIDs())
	require.NoError(t, res.Err)

	assert.Equal(t, []string{"task-1", "task-2", "task-3", "task-4"}, res.Fake.Created())

	email := res.Fake.Task(t, "task-4")
	assert.Equal(t, []string{"task-2", "task-3"}, email.Dependencies)
	assert.Equal(t, "group", email.TaskGroupID)

	graph := readGraph(t, res.OutputDir)
	assert.Len(t, graph, 4)
	assert.Contains(t, graph, "task-1")

	actions, err := os.ReadFile(filepath.Join(res.OutputDir, graphfile.ActionsFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(actions))

	params, err := os.ReadFile(filepath.Join(res.OutputDir, graphfile.ParametersFile))
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(params))
}

func TestRun_PullRequestSchedulesOneTask(t *testing.T) {
	cfg := app.Config{
		Command:        "pull-request",
		Event:          decision.Event{Author: "dev@example.com", Branch: "feature-x"},
		TaskGroupID:    "group",
		HeadRepository: "https://github.com/someone/firefox-tv",
		HeadRev:        "abc123",
	}
	res := testutil.RunDecision(t, cfg, nil)
	require.NoError(t, res.Err)

	created := res.Fake.Created()
	require.Len(t, created, 1)
	assert.Len(t, created[0], 22, "slugIds are 22 characters")
	assert.Len(t, readGraph(t, res.OutputDir), 1)
}

func TestRun_AbortsOnRemoteFailure(t *testing.T) {
	res := testutil.RunDecision(t, releaseConfig(), func(f *testutil.FakeTaskcluster) {
		f.FailCreateAfter(2, http.StatusForbidden)
	}, sequentialIDs())

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "task-3 (push)")
	assert.Contains(t, res.Err.Error(), "status 403")
	assert.Equal(t, []string{"task-1", "task-2"}, res.Fake.Created())

	_, err := os.Stat(filepath.Join(res.OutputDir, graphfile.TaskGraphFile))
	assert.True(t, os.IsNotExist(err), "no graph is written after a failure")
}

func TestRun_DryRun(t *testing.T) {
	cfg := releaseConfig()
	cfg.DryRun = true
	cfg.LogLevel = "debug"

	res := testutil.RunDecision(t, cfg, nil, sequentialIDs())
	require.NoError(t, res.Err)
	assert.Empty(t, res.Fake.Created())
	assert.Contains(t, res.Logs, "App initialized.")

	var planned []struct {
		TaskID string `json:"taskId"`
		Label  string `json:"label"`
		Task   struct {
			Dependencies []string `json:"dependencies"`
		} `json:"task"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Output), &planned), "dry-run output must be pure JSON")
	require.Len(t, planned, 4)
	assert.Equal(t, "task-4", planned[3].TaskID)
	assert.Equal(t, "email", planned[3].Label)
	assert.Equal(t, []string{"task-2", "task-3"}, planned[3].Task.Dependencies)

	_, err := os.Stat(filepath.Join(res.OutputDir, graphfile.TaskGraphFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_GraphRelease(t *testing.T) {
	cfg := app.Config{
		Command:        app.CommandGraph,
		KindsPath:      "../../taskcluster/kinds",
		TaskGroupID:    "group",
		HeadRepository: trust.UpstreamRepository,
		HeadRev:        "abc123",
		HeadRef:        "refs/tags/v2.0",
		HeadTag:        "v2.0",
		TasksFor:       decision.TasksForRelease,
		Owner:          "firefox-tv@mozilla.com",
		Level:          3,
	}
	res := testutil.RunDecision(t, cfg, nil, sequentialIDs())
	require.NoError(t, res.Err)

	assert.Equal(t, []string{"task-1", "task-2", "task-3", "task-4"}, res.Fake.Created())
	sign := res.Fake.Task(t, "task-2")
	assert.Equal(t, []string{"task-1"}, sign.Dependencies)
	assert.Equal(t, "task-1", sign.Payload.UpstreamArtifacts[0].TaskID)

	data, err := os.ReadFile(filepath.Join(res.OutputDir, graphfile.ParametersFile))
	require.NoError(t, err)
	var params decision.Parameters
	require.NoError(t, yaml.Unmarshal(data, &params))
	assert.Equal(t, decision.ReleaseTypeProduction, params.ReleaseType)
	assert.Equal(t, "v2.0", params.HeadTag)
}

func TestRun_GraphPushToBranchSchedulesNothing(t *testing.T) {
	cfg := app.Config{
		Command:        app.CommandGraph,
		KindsPath:      "../../taskcluster/kinds",
		TaskGroupID:    "group",
		HeadRepository: trust.UpstreamRepository,
		HeadRev:        "abc123",
		HeadRef:        "feature",
		TasksFor:       decision.TasksForPush,
	}
	res := testutil.RunDecision(t, cfg, nil)
	require.NoError(t, res.Err)
	assert.Empty(t, res.Fake.Created())
	assert.Contains(t, res.Logs, "No tasks to schedule.")
	assert.Empty(t, res.Output)
}

func TestRun_GraphUnknownEvent(t *testing.T) {
	cfg := app.Config{
		Command:        app.CommandGraph,
		KindsPath:      "../../taskcluster/kinds",
		TaskGroupID:    "group",
		HeadRepository: trust.UpstreamRepository,
		HeadRev:        "abc123",
		TasksFor:       "github-issue",
	}
	res := testutil.RunDecision(t, cfg, nil)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, decision.ErrUnknownEvent)
	assert.Empty(t, res.Fake.Created())
}

func TestRun_BitbarToken(t *testing.T) {
	res := testutil.RunDecision(t, app.Config{Command: app.CommandBitbarToken}, func(f *testutil.FakeTaskcluster) {
		f.SetSecret(t, "project/mobile/firefox-tv/tokens", map[string]string{
			"api_key":   "secret-key",
			"cloud_url": "https://cloud.bitbar.com",
			"other":     "ignored",
		})
	})
	require.NoError(t, res.Err)

	path := filepath.Join(res.OutputDir, ".bitbar_token.json")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"api_key":"secret-key","cloud_url":"https://cloud.bitbar.com"}`, string(data))
}

func TestRun_BitbarTokenMissingSecret(t *testing.T) {
	res := testutil.RunDecision(t, app.Config{Command: app.CommandBitbarToken}, nil)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "failed to fetch device farm token")
}
