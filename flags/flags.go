package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "RUNWATCH"

// prefixEnvVars adds the application prefix to an environment variable name.
func prefixEnvVars(name string) []string {
	return []string{fmt.Sprintf("%s_%s", EnvVarPrefix, name)}
}

var (
	Input = &cli.StringFlag{
		Name:    "input",
		Value:   "-",
		EnvVars: prefixEnvVars("INPUT"),
		Usage:   "Path to the runner's NDJSON event stream, or '-' to read stdin",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "results",
		EnvVars: prefixEnvVars("OUTPUT_DIR"),
		Usage:   "Directory under which per-run artifact directories are created",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: prefixEnvVars("CONFIG"),
		Usage:   "Optional YAML config file (eg. 'runwatch.yaml')",
	}
	EnvironmentURL = &cli.StringFlag{
		Name:    "environment-url",
		Value:   "",
		EnvVars: prefixEnvVars("ENVIRONMENT_URL"),
		Usage:   "URL of the environment the tests ran against; recorded in the summary artifact",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between observation passes (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Quotes = &cli.BoolFlag{
		Name:    "quotes",
		Value:   true,
		EnvVars: prefixEnvVars("QUOTES"),
		Usage:   "Print a consolation quote when the run has failures",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output (trace|debug|info|warn|error|crit)",
	}
	LogColor = &cli.BoolFlag{
		Name:    "log.color",
		Value:   false,
		EnvVars: prefixEnvVars("LOG_COLOR"),
		Usage:   "Color the log output if in terminal mode",
	}
)

var Flags = []cli.Flag{
	Input,
	OutputDir,
	ConfigFile,
	EnvironmentURL,
	RunInterval,
	Quotes,
	LogLevel,
	LogColor,
}
