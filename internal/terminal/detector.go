// Package terminal provides helpers for deciding whether the current process
// has an interactive control channel, and for asking the person at that
// channel a yes/no question.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars lists variables whose presence marks a CI run. CI itself is
// special: CI=false, CI=0 and CI=no mean "not CI".
var ciEnvVars = []string{
	"CI", "CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS", "GITLAB_CI", "TF_BUILD",
	"TRAVIS", "CIRCLECI", "APPVEYOR", "BUILDKITE", "DRONE",
	"JENKINS_URL", "BUILD_NUMBER",
}

// DetectorOptions overrides detection; normally filled from the [terminal]
// config section. Setting both is rejected by config validation.
type DetectorOptions struct {
	ForceInteractive    bool
	ForceNonInteractive bool
}

// InteractiveDetector reports whether a human can be asked for confirmation.
type InteractiveDetector interface {
	IsInteractive() bool
	IsTerminal() bool
	IsCIEnvironment() bool
}

// DefaultInteractiveDetector implements InteractiveDetector on top of the
// process's standard input and output.
type DefaultInteractiveDetector struct {
	options    DetectorOptions
	isTerminal func(fd int) bool
	stdin      *os.File
	stdout     *os.File
}

// NewInteractiveDetector returns a detector bound to os.Stdin and os.Stdout.
func NewInteractiveDetector(options DetectorOptions) InteractiveDetector {
	return &DefaultInteractiveDetector{
		options:    options,
		isTerminal: term.IsTerminal,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}
}

// IsInteractive applies the overrides first, then treats any CI run as
// unattended, then requires a terminal on both stdin and stdout.
func (d *DefaultInteractiveDetector) IsInteractive() bool {
	switch {
	case d.options.ForceInteractive:
		return true
	case d.options.ForceNonInteractive, d.IsCIEnvironment():
		return false
	default:
		return d.IsTerminal()
	}
}

// IsTerminal reports whether stdin and stdout are both terminals. A prompt
// needs somewhere to be shown and somewhere to read the answer from.
func (d *DefaultInteractiveDetector) IsTerminal() bool {
	if d.stdin == nil || d.stdout == nil {
		return false
	}
	return d.isTerminal(int(d.stdin.Fd())) && d.isTerminal(int(d.stdout.Fd()))
}

// IsCIEnvironment reports whether a CI marker variable is set. The first
// set variable in ciEnvVars decides.
func (d *DefaultInteractiveDetector) IsCIEnvironment() bool {
	for _, name := range ciEnvVars {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		return name != "CI" || isCITruthy(value)
	}
	return false
}

func isCITruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "0", "no":
		return false
	default:
		return true
	}
}
