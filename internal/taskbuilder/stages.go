package taskbuilder

import (
	"fmt"

	"github.com/vk/tvtaskgraph/internal/shellscript"
	"github.com/vk/tvtaskgraph/internal/taskdef"
	"github.com/vk/tvtaskgraph/internal/trust"
)

const (
	reportsDir      = "/opt/firefox-tv/app/build/reports"
	releaseAPK      = "/opt/firefox-tv/app/build/outputs/apk/system/release/app-system-release-unsigned.apk"
	firebaseDevices = "model=sailfish,version=25,orientation=landscape"
)

// Labels of the entries produced by the stage methods.
const (
	LabelPullRequest  = "build-pull-request"
	LabelMaster       = "build-master"
	LabelLanded       = "build-landed"
	LabelRelease      = "build-release"
	LabelReleaseBuild = "build"
	LabelSign         = "sign"
	LabelPush         = "push"
	LabelEmail        = "email"
)

var (
	gradleVerify = shellscript.Step{
		"./gradlew", "-PisPullRequest", "clean",
		"assembleSystem", "assembleAndroidTest",
		"lint", "checkstyle", "ktlint", "pmd", "detekt", "test",
	}
	gradleRelease = shellscript.Step{"./gradlew", "--no-daemon", "clean", "test", "assembleSystemRelease"}
)

// PullRequestTask verifies a pull request: the branch is fetched and the
// builder's commit checked out before linting, tests, coverage upload and a
// Firebase Test Lab run.
func (b Builder) PullRequestTask(branch string) (taskdef.Entry, error) {
	script := b.checkout(shellscript.Step{"git", "fetch", b.ctx.RepoURL, branch}, b.ctx.Commit).
		Run(gradleVerify...).
		Run("./gradlew", "-Pcoverage", "jacocoSystemDebugTestReport").
		Run("./tools/taskcluster/upload-coverage-report.sh").
		Run("./tools/taskcluster/download-firebase-sdk.sh").
		Run("./tools/taskcluster/google-firebase-testlab-login.sh").
		Run("./tools/taskcluster/execute-firebase-test.sh", "system/debug", "app-system-debug", firebaseDevices)

	return b.ShellTask(ShellSpec{
		Label:     LabelPullRequest,
		Name:      "Firefox for Amazon's Fire TV - Build - Pull Request",
		Script:    script,
		Scopes:    []string{tokensScope},
		Artifacts: map[string]taskdef.Artifact{"public/reports": b.reportsArtifact()},
	})
}

// MasterTask verifies a push to the default branch and runs the UI tests on
// the device farm from the same shell.
func (b Builder) MasterTask() (taskdef.Entry, error) {
	return b.postMergeTask(LabelMaster, "Firefox for Amazon's Fire TV - Build - Master")
}

// LandedTask is MasterTask under the name used for landed commits.
func (b Builder) LandedTask() (taskdef.Entry, error) {
	return b.postMergeTask(LabelLanded, "Firefox for Amazon's Fire TV - Build - Landed")
}

func (b Builder) postMergeTask(label, name string) (taskdef.Entry, error) {
	script := b.checkout(shellscript.Step{"git", "fetch", b.ctx.RepoURL}, b.ctx.Commit).
		Run(gradleVerify...).
		Run("python", "./tools/taskcluster/get-bitbar-token.py").
		Run("python", "./tools/taskcluster/execute-bitbar-test.py", "system/debug", "app-system-debug")

	return b.ShellTask(ShellSpec{
		Label:     label,
		Name:      name,
		Script:    script,
		Scopes:    []string{tokensScope},
		Artifacts: map[string]taskdef.Artifact{"public": b.reportsArtifact()},
	})
}

// ReleaseTask builds tag as a standalone release with no signing downstream.
// Its package is kept for a month.
func (b Builder) ReleaseTask(tag string) (taskdef.Entry, error) {
	return b.releaseTask(LabelRelease, "Firefox for Amazon's Fire TV - Build - Release", tag, false, "1 month")
}

// ReleaseBuildTask builds tag for the signing and push tasks. It runs with
// chain of trust enabled and its package is kept for a year.
func (b Builder) ReleaseBuildTask(tag string) (taskdef.Entry, error) {
	return b.releaseTask(LabelReleaseBuild, "Firefox for Amazon's Fire TV - Build - Release", tag, true, "1 year")
}

func (b Builder) releaseTask(label, name, tag string, chainOfTrust bool, retention string) (taskdef.Entry, error) {
	// The tag is checked out literally; branches move, tags do not.
	script := b.checkout(shellscript.Step{"git", "fetch", b.ctx.RepoURL, "--tags"}, tag).
		Run(gradleRelease...)

	entry, err := b.ShellTask(ShellSpec{
		Label:        label,
		Name:         name,
		Description:  fmt.Sprintf("Build of tag %s", tag),
		Script:       script,
		ChainOfTrust: chainOfTrust,
		Artifacts: map[string]taskdef.Artifact{
			SignedArtifact: taskdef.MustArtifact(taskdef.ArtifactFile, releaseAPK, retention, b.ctx.Now()),
		},
		Attributes: map[string]string{taskdef.AttrKind: "build"},
	})
	if err != nil {
		return taskdef.Entry{}, err
	}
	entry.Attributes[taskdef.AttrTrustLevel] = b.ctx.Trust().String()
	return entry, nil
}

// SignForGithubTask signs the package produced by the build task.
func (b Builder) SignForGithubTask(buildTask string, level trust.Level) taskdef.Entry {
	return b.SigningTask(SigningSpec{
		Label:      LabelSign,
		Name:       "Sign for GitHub",
		Upstream:   buildTask,
		Paths:      []string{SignedArtifact},
		Formats:    []string{signingFormat},
		Attributes: map[string]string{taskdef.AttrKind: "signing"},
	}, level)
}

// AmazonTask pushes the package produced by the build task to the Amazon
// store on the context's channel.
func (b Builder) AmazonTask(buildTask string, level trust.Level) taskdef.Entry {
	return b.PushTask(PushSpec{
		Label:       LabelPush,
		Name:        "Push to Amazon",
		Upstream:    buildTask,
		Paths:       []string{SignedArtifact},
		TargetStore: "amazon",
		Attributes:  map[string]string{taskdef.AttrKind: "push"},
	}, level)
}

// EmailTask notifies release management once both the signing and push
// tasks completed. The message links to the signed package.
func (b Builder) EmailTask(signTask, pushTask, tag string) taskdef.Entry {
	return b.NotifyTask(EmailSpec{
		Label:   LabelEmail,
		Name:    "Email Release-Management",
		Subject: fmt.Sprintf("Firefox for Fire TV %s built and signed", tag),
		Content: fmt.Sprintf(
			"Tag %s has been built, signed and pushed to the Amazon store. "+
				"The signed APK is linked below.", tag),
		LinkText:     "Signed APK",
		LinkHref:     b.ArtifactURL(signTask, SignedArtifact),
		Dependencies: []string{signTask, pushTask},
		Attributes:   map[string]string{taskdef.AttrKind: "email"},
	})
}

// checkout starts a script with fetch, detached-head silencing, checkout of
// ref and license acceptance.
func (b Builder) checkout(fetch shellscript.Step, ref string) *shellscript.Script {
	return shellscript.New(
		fetch,
		shellscript.Step{"git", "config", "advice.detachedHead", "false"},
		shellscript.Step{"git", "checkout", ref},
	).Pipe(shellscript.Step{"yes"}, shellscript.Step{"sdkmanager", "--licenses"})
}

func (b Builder) reportsArtifact() taskdef.Artifact {
	return taskdef.MustArtifact(taskdef.ArtifactDirectory, reportsDir, "1 year", b.ctx.Now())
}
