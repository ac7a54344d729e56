package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/framebatch/internal/config"
	"github.com/rshade/framebatch/internal/engine/batch"
)

// writeOverlay is a test helper that writes YAML content to a temp file
// and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := config.New()
	overlay := writeOverlay(t, `
batch:
  budget_ms: 8
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, 8.0, target.Batch.BudgetMs)
	// The section is replaced wholesale, so unspecified fields are zeroed.
	assert.Equal(t, batch.AdaptiveConfig{}, target.Batch.Adaptive)

	// Other sections should be unchanged.
	assert.Equal(t, "info", target.Logging.Level)
	assert.Equal(t, float64(config.DefaultFPS), target.Frame.FPS)
}

func TestShallowMergeYAML_MultipleKeyOverride(t *testing.T) {
	target := config.New()
	overlay := writeOverlay(t, `
schema_version: "1.1.0"
logging:
  level: debug
  format: json
monitor:
  overrun_alert_frames: 5
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "1.1.0", target.SchemaVersion)
	assert.Equal(t, "debug", target.Logging.Level)
	assert.Equal(t, "json", target.Logging.Format)
	assert.Equal(t, 5, target.Monitor.OverrunAlertFrames)
	assert.Equal(t, 0, target.Monitor.StarvationFrames)
	assert.Equal(t, 2.5, target.Batch.BudgetMs)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := config.New()
	overlay := writeOverlay(t, `
renderer:
  vsync: true
frame:
  fps: 144
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, 144.0, target.Frame.FPS)
}

func TestShallowMergeYAML_EmptyFile(t *testing.T) {
	target := config.New()
	overlay := writeOverlay(t, "# nothing here\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, config.New().Batch, target.Batch)
}

func TestShallowMergeYAML_Errors(t *testing.T) {
	require.Error(t, config.ShallowMergeYAML(nil, "x.yaml"))

	err := config.ShallowMergeYAML(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading overlay file")

	err = config.ShallowMergeYAML(config.New(), writeOverlay(t, "batch: {budget_ms: [1]}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `applying overlay section "batch"`)
}
