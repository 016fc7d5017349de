package terminal

import (
	"os"
	"testing"
)

// setupCleanEnv clears every CI indicator the detector looks at and then sets
// only the ones given, so tests do not depend on where they run.
func setupCleanEnv(t *testing.T, envVars map[string]string) {
	t.Helper()

	for _, v := range ciEnvVars {
		if value, specified := envVars[v]; specified {
			t.Setenv(v, value)
		} else {
			t.Setenv(v, "") // Empty is treated as unset
		}
	}
}

// newTestDetector builds a detector whose terminal check is stubbed out.
func newTestDetector(options DetectorOptions, tty bool) *DefaultInteractiveDetector {
	return &DefaultInteractiveDetector{
		options:    options,
		isTerminal: func(int) bool { return tty },
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}
}
