package runwatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/runwatch/runwatch/flags"
)

// buildConfig runs the CLI machinery so flag defaults and env parsing behave
// exactly as in production.
func buildConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	var cfg *Config
	var cfgErr error
	app := cli.NewApp()
	app.Name = "runwatch-test"
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, cfgErr = NewConfig(ctx, testLogger())
		return nil
	}
	require.NoError(t, app.Run(append([]string{"runwatch"}, args...)))
	return cfg, cfgErr
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := buildConfig(t)
	require.NoError(t, err)

	assert.Equal(t, "-", cfg.Input)
	assert.True(t, cfg.RunOnce)
	assert.True(t, cfg.ShowQuotes)
	assert.Empty(t, cfg.EnvironmentURL)
	assert.True(t, filepath.IsAbs(cfg.OutputDir))
}

func TestNewConfig_ResolvesInputPath(t *testing.T) {
	cfg, err := buildConfig(t, "--input", "events.ndjson")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Input))
}

func TestNewConfig_IntervalDisablesRunOnce(t *testing.T) {
	cfg, err := buildConfig(t, "--input", "events.ndjson", "--run-interval", "30m")
	require.NoError(t, err)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, "30m0s", cfg.RunInterval.String())
}

func TestNewConfig_LoadsFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runwatch.yaml")
	content := `environment_url: https://staging.example.com
output_dir: /tmp/runwatch-artifacts
quotes:
  - "first quote"
  - "second quote"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := buildConfig(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.EnvironmentURL)
	assert.Equal(t, "/tmp/runwatch-artifacts", cfg.OutputDir)
	assert.Equal(t, []string{"first quote", "second quote"}, cfg.QuotePool)
}

func TestNewConfig_FlagsOverrideFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runwatch.yaml")
	content := `environment_url: https://file.example.com
output_dir: /tmp/from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := buildConfig(t,
		"--config", path,
		"--environment-url", "https://flag.example.com",
		"--output-dir", filepath.Join(dir, "from-flag"))
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example.com", cfg.EnvironmentURL)
	assert.Equal(t, filepath.Join(dir, "from-flag"), cfg.OutputDir)
}

func TestNewConfig_MissingConfigFileFails(t *testing.T) {
	_, err := buildConfig(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewConfig_MalformedConfigFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	_, err := buildConfig(t, "--config", path)
	require.Error(t, err)
}
