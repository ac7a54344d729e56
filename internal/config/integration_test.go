package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalConfig(t *testing.T) {
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	cfg := GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultBudgetMs, cfg.Batch.BudgetMs)

	cfg2 := GetGlobalConfig()
	assert.Same(t, cfg, cfg2)

	ResetGlobalConfigForTest()
	cfg3 := GetGlobalConfig()
	assert.NotSame(t, cfg, cfg3)
}

func TestSetGlobalConfig(t *testing.T) {
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	custom := New()
	custom.Batch.BudgetMs = 7
	custom.Logging.Level = "debug"
	custom.Logging.File = "/tmp/framebatch-test.log"
	SetGlobalConfig(custom)

	assert.Same(t, custom, GetGlobalConfig())
	assert.Equal(t, 7.0, GetGlobalConfig().Batch.BudgetMs)
	assert.Equal(t, "debug", GetLoggingConfig().Level)
}

func TestGetConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FRAMEBATCH_HOME", home)

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, home, dir)

	t.Setenv("FRAMEBATCH_HOME", "")
	t.Setenv("HOME", home)
	dir, err = GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".framebatch"), dir)
}

func TestGetHistoryDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FRAMEBATCH_HOME", home)

	cfg := New()
	dir, err := cfg.GetHistoryDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "history"), dir)

	cfg.History.Dir = "/var/tmp/runs"
	dir, err = cfg.GetHistoryDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/runs", dir)
}

func TestEnsureSubDirs(t *testing.T) {
	home := filepath.Join(t.TempDir(), "fb")
	t.Setenv("FRAMEBATCH_HOME", home)
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	cfg := New()
	cfg.Logging.File = filepath.Join(home, "logs", "framebatch.log")
	SetGlobalConfig(cfg)

	require.NoError(t, EnsureSubDirs())

	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	info, err = os.Stat(filepath.Join(home, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	info, err = os.Stat(filepath.Join(home, "history"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cfg.History.Enabled = false
	cfg.History.Dir = filepath.Join(home, "skipped")
	require.NoError(t, EnsureSubDirs())
	_, err = os.Stat(cfg.History.Dir)
	assert.True(t, os.IsNotExist(err))
}
