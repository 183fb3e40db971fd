// Package shellscript turns structured command steps into the single bash
// invocation a docker-worker task runs. Every argument is quoted at render
// time, so repository URLs, branch names and tags from the triggering event
// can never be interpreted by the shell.
package shellscript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// terminator closes the heredoc the script is written through.
const terminator = "SCRIPT"

// Step is one command expressed as an argument vector.
type Step []string

// Line is a pipeline of one or more steps rendered on a single script line.
type Line []Step

// Script is an ordered list of lines executed with `bash -e`.
type Script struct {
	lines []Line
}

// New returns a script running the given steps in order.
func New(steps ...Step) *Script {
	s := &Script{}
	for _, st := range steps {
		s.Run(st...)
	}
	return s
}

// Run appends a single command.
func (s *Script) Run(argv ...string) *Script {
	s.lines = append(s.lines, Line{copyStep(argv)})
	return s
}

// Pipe appends a pipeline, e.g. `yes | sdkmanager --licenses`.
func (s *Script) Pipe(steps ...Step) *Script {
	line := make(Line, 0, len(steps))
	for _, st := range steps {
		line = append(line, copyStep(st))
	}
	s.lines = append(s.lines, line)
	return s
}

// Lines returns a copy of the script's lines.
func (s *Script) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Render returns the script body, one quoted command line per line.
func (s *Script) Render() (string, error) {
	if len(s.lines) == 0 {
		return "", errors.New("script has no steps")
	}
	out := make([]string, 0, len(s.lines)+1)
	out = append(out, "export TERM=dumb")
	for i, line := range s.lines {
		rendered, err := renderLine(line)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", i, err)
		}
		out = append(out, rendered)
	}
	return strings.Join(out, "\n"), nil
}

// Command packages the script into the worker command. The script is written
// to ../script.sh through a quoted heredoc and run with `bash -e`.
func (s *Script) Command() ([]string, error) {
	body, err := s.Render()
	if err != nil {
		return nil, err
	}
	return []string{
		"/bin/bash",
		"--login",
		"-c",
		"cat <<'" + terminator + "' > ../script.sh && bash -e ../script.sh\n" + body + "\n" + terminator,
	}, nil
}

func copyStep(argv []string) Step {
	return append(Step(nil), argv...)
}

func renderLine(line Line) (string, error) {
	if len(line) == 0 {
		return "", errors.New("empty line")
	}
	parts := make([]string, 0, len(line))
	for _, st := range line {
		if len(st) == 0 {
			return "", errors.New("empty step")
		}
		for _, arg := range st {
			if err := checkArg(arg); err != nil {
				return "", err
			}
		}
		parts = append(parts, shellquote.Join(st...))
	}
	return strings.Join(parts, " | "), nil
}

func checkArg(arg string) error {
	if strings.ContainsRune(arg, 0) {
		return fmt.Errorf("argument %q contains a NUL byte", arg)
	}
	for _, l := range strings.Split(arg, "\n") {
		if l == terminator {
			return fmt.Errorf("argument %q would terminate the script heredoc", arg)
		}
	}
	return nil
}
