package flags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestHasEnvVar(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlag, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "flag %q must support env vars", flagName)
			envVars := envFlag.GetEnvVars()
			require.Len(t, envVars, 1, "flag %q must have exactly one env var", flagName)
			require.True(t, strings.HasPrefix(envVars[0], EnvVarPrefix+"_"),
				"flag %q env var %q must start with %s_", flagName, envVars[0], EnvVarPrefix)
		})
	}
}
