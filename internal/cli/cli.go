package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vk/tvtaskgraph/internal/app"
	"github.com/vk/tvtaskgraph/internal/decision"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// envBindings maps configuration keys to the environment variables the
// decision task receives.
var envBindings = map[string]string{
	"task_group_id":   "TASK_ID",
	"head_repository": "MOBILE_HEAD_REPOSITORY",
	"head_rev":        "MOBILE_HEAD_REV",
	"head_ref":        "MOBILE_HEAD_REF",
	"head_tag":        "MOBILE_HEAD_TAG",
	"tasks_for":       "TASKS_FOR",
	"proxy_url":       "TASKCLUSTER_PROXY_URL",
	"notify_email":    "TVTG_NOTIFY_EMAIL",
	"queue_root_url":  "TVTG_QUEUE_ROOT_URL",
	"level":           "TVTG_LEVEL",
	"owner":           "TVTG_OWNER",
}

// invocation records the subcommand cobra dispatched to.
type invocation struct {
	command   string
	event     decision.Event
	kindsPath string
}

// Parse processes command-line arguments and the environment. It returns a
// populated Config, a boolean indicating if the program should exit
// cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}

	var inv *invocation
	root := newRootCommand(v, func(i invocation) { inv = &i })
	root.SetOut(output)
	root.SetErr(output)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if inv == nil {
		slog.Debug("No command ran, help was printed.")
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.", "command", inv.command)

	logFormat := strings.ToLower(v.GetString("log_format"))
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(v.GetString("log_level"))
	if _, ok := app.LogLevels[logLevel]; !ok {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	level := 0
	if raw := v.GetString("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid level %q: must be a number", raw)}
		}
		level = n
	}

	config, err := app.NewConfig(app.Config{
		Command:        inv.command,
		Event:          inv.event,
		KindsPath:      inv.kindsPath,
		ParametersPath: v.GetString("parameters"),
		TaskGroupID:    v.GetString("task_group_id"),
		HeadRepository: v.GetString("head_repository"),
		HeadRev:        v.GetString("head_rev"),
		HeadRef:        v.GetString("head_ref"),
		HeadTag:        v.GetString("head_tag"),
		TasksFor:       v.GetString("tasks_for"),
		Owner:          v.GetString("owner"),
		Level:          level,
		ProxyURL:       v.GetString("proxy_url"),
		NotifyAddress:  v.GetString("notify_email"),
		QueueRootURL:   v.GetString("queue_root_url"),
		OutputDir:      v.GetString("output_dir"),
		DryRun:         v.GetBool("dry_run"),
		LogFormat:      logFormat,
		LogLevel:       logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}

func newRootCommand(v *viper.Viper, record func(invocation)) *cobra.Command {
	root := &cobra.Command{
		Use:   "decision",
		Short: "Schedule the Taskcluster tasks of a Firefox for Fire TV build",
		Long: `decision builds the task descriptors for the event that triggered it and
submits them to Taskcluster through the worker's proxy. The created graph is
written to task-graph.json for chain-of-trust verification.

Environment:
  TASK_ID                 task group of the decision task
  MOBILE_HEAD_REPOSITORY  repository URL (decides the trust level)
  MOBILE_HEAD_REV         commit to build
  MOBILE_HEAD_REF         branch or ref (graph mode)
  MOBILE_HEAD_TAG         release tag (graph mode)
  TASKS_FOR               github-pull-request, github-push or github-release (graph mode)
  TASKCLUSTER_PROXY_URL   proxy base URL (default http://taskcluster)
  TVTG_NOTIFY_EMAIL       release-management address
  TVTG_QUEUE_ROOT_URL     public queue URL used in artifact links
  TVTG_LEVEL              trust level 1-3 (graph mode)
  TVTG_OWNER              task owner (graph mode)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New(`a command ("pull-request", "master", "landed", "release", "graph" or "bitbar-token") must be provided to the decision task`)
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.String("output-dir", app.DefaultOutputDir, "Directory task-graph.json, actions.json and parameters.yml are written to.")
	flags.Bool("dry-run", false, "Print the planned tasks instead of submitting them.")
	bindFlag(v, "log_level", flags.Lookup("log-level"))
	bindFlag(v, "log_format", flags.Lookup("log-format"))
	bindFlag(v, "output_dir", flags.Lookup("output-dir"))
	bindFlag(v, "dry_run", flags.Lookup("dry-run"))

	root.AddCommand(
		&cobra.Command{
			Use:   "pull-request AUTHOR BRANCH",
			Short: "Verify a pull request",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				record(invocation{
					command: string(decision.CommandPullRequest),
					event:   decision.Event{Author: args[0], Branch: args[1]},
				})
				return nil
			},
		},
		postMergeCommand(decision.CommandMaster, "Verify a push to master", record),
		postMergeCommand(decision.CommandLanded, "Verify a landed commit", record),
		releaseCommand(record),
		graphCommand(v, record),
		&cobra.Command{
			Use:   "bitbar-token",
			Short: "Write the device farm credentials to .bitbar_token.json",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				record(invocation{command: app.CommandBitbarToken})
				return nil
			},
		},
	)
	return root
}

func postMergeCommand(command decision.Command, short string, record func(invocation)) *cobra.Command {
	return &cobra.Command{
		Use:   string(command) + " AUTHOR",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record(invocation{command: string(command), event: decision.Event{Author: args[0]}})
			return nil
		},
	}
}

func releaseCommand(record func(invocation)) *cobra.Command {
	var buildOnly bool
	cmd := &cobra.Command{
		Use:   "release TAG",
		Short: "Build, sign and push a release tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record(invocation{
				command: string(decision.CommandRelease),
				event:   decision.Event{Tag: args[0], BuildOnly: buildOnly},
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&buildOnly, "build-only", false, "Only build the tag; no signing, push or email.")
	return cmd
}

func graphCommand(v *viper.Viper, record func(invocation)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [KINDS_PATH]",
		Short: "Schedule the tasks declared in HCL kind files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := invocation{command: app.CommandGraph}
			if len(args) == 1 {
				inv.kindsPath = args[0]
			}
			record(inv)
			return nil
		},
	}
	cmd.Flags().String("parameters", "", "Read parameters from this YAML file instead of the environment.")
	cmd.Flags().String("level", "", "Trust level 1-3; overrides TVTG_LEVEL.")
	bindFlag(v, "parameters", cmd.Flags().Lookup("parameters"))
	bindFlag(v, "level", cmd.Flags().Lookup("level"))
	return cmd
}
