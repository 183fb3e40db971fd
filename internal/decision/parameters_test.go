package decision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters_Derive(t *testing.T) {
	testCases := []struct {
		name        string
		params      Parameters
		releaseType string
		method      string
	}{
		{"production release", Parameters{TasksFor: TasksForRelease, HeadTag: "v3.1"}, "production", "production"},
		{"LAT release", Parameters{TasksFor: TasksForRelease, HeadTag: "v3.1-LAT2"}, "lat", "lat"},
		{"lowercase lat is production", Parameters{TasksFor: TasksForRelease, HeadTag: "v3.1-lat"}, "production", "production"},
		{"pull request", Parameters{TasksFor: TasksForPullRequest}, "", "default"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.params.Derive()
			assert.Equal(t, tc.releaseType, got.ReleaseType)
			assert.Equal(t, tc.method, got.TargetTasksMethod)
		})
	}
}

func TestParameters_Schedules(t *testing.T) {
	testCases := []struct {
		name    string
		params  Parameters
		want    bool
		wantErr bool
	}{
		{"pull request", Parameters{TasksFor: TasksForPullRequest, HeadRef: "feature"}, true, false},
		{"push to master", Parameters{TasksFor: TasksForPush, HeadRef: "master"}, true, false},
		{"push to master by full ref", Parameters{TasksFor: TasksForPush, HeadRef: "refs/heads/master"}, true, false},
		{"push to another branch", Parameters{TasksFor: TasksForPush, HeadRef: "feature"}, false, false},
		{"release", Parameters{TasksFor: TasksForRelease}, true, false},
		{"cron", Parameters{TasksFor: "cron"}, false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.params.Schedules()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnknownEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parameters.yml")
	content := `
tasks_for: github-release
head_repository: https://github.com/mozilla-mobile/firefox-tv
head_rev: abc123
head_ref: refs/tags/v1.0
head_tag: v1.0
owner: firefox-tv@mozilla.com
level: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, Parameters{
		TasksFor:       TasksForRelease,
		HeadRepository: "https://github.com/mozilla-mobile/firefox-tv",
		HeadRev:        "abc123",
		HeadRef:        "refs/tags/v1.0",
		HeadTag:        "v1.0",
		Owner:          "firefox-tv@mozilla.com",
		Level:          3,
	}, p)
}

func TestLoadParameters_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parameters.yml")
	require.NoError(t, os.WriteFile(path, []byte("level: [not, a, number]"), 0o644))

	_, err := LoadParameters(path)
	assert.ErrorContains(t, err, "failed to parse parameters")
}
