package runwatch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/runwatch/runwatch/flags"
)

// Config holds the application configuration
type Config struct {
	Input          string        // Event stream path, "-" for stdin
	OutputDir      string        // Base directory for per-run artifacts
	EnvironmentURL string        // Recorded verbatim in the summary artifact
	RunInterval    time.Duration // Interval between observation passes
	RunOnce        bool          // Exit after a single pass
	ShowQuotes     bool          // Print a quote when the run has failures
	QuotePool      []string      // Extra quotes from the config file
	Log            log.Logger
}

// fileConfig is the optional YAML config file shape. CLI flags take
// precedence over file values.
type fileConfig struct {
	EnvironmentURL string   `yaml:"environment_url"`
	OutputDir      string   `yaml:"output_dir"`
	Quotes         []string `yaml:"quotes"`
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	input := ctx.String(flags.Input.Name)
	if input == "" {
		return nil, fmt.Errorf("input event stream is required ('-' for stdin)")
	}
	if input != "-" {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for input %q: %w", input, err)
		}
		input = abs
	}

	outputDir := ctx.String(flags.OutputDir.Name)
	environmentURL := ctx.String(flags.EnvironmentURL.Name)

	var quotePool []string
	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		fc, err := loadFileConfig(path)
		if err != nil {
			return nil, err
		}
		if environmentURL == "" {
			environmentURL = fc.EnvironmentURL
		}
		if !ctx.IsSet(flags.OutputDir.Name) && fc.OutputDir != "" {
			outputDir = fc.OutputDir
		}
		quotePool = fc.Quotes
	}

	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory: %w", err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)

	return &Config{
		Input:          input,
		OutputDir:      outputDir,
		EnvironmentURL: environmentURL,
		RunInterval:    runInterval,
		RunOnce:        runInterval == 0,
		ShowQuotes:     ctx.Bool(flags.Quotes.Name),
		QuotePool:      quotePool,
		Log:            logger,
	}, nil
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return &fc, nil
}
