package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-introducer/config"
)

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", " YES ", "on"} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"", "false", "0", "off", "maybe"} {
		assert.False(t, parseBool(s), s)
	}
}

// TestApplyEnvOverrides 测试环境变量覆盖
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(envPrefix+envDataDir, "/tmp/introducer")
	t.Setenv(envPrefix+envLocalIdentity, "me")
	t.Setenv(envPrefix+envInMemory, "true")

	cfg := config.NewConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "/tmp/introducer", cfg.Storage.DataDir)
	assert.Equal(t, "me", cfg.Introduction.LocalIdentity)
	assert.True(t, cfg.Storage.InMemory)
	assert.Empty(t, cfg.Metrics.ListenAddr)
}

// TestApplyDemo 测试演示模式只在未设置时填充本地身份
func TestApplyDemo(t *testing.T) {
	cfg := config.NewConfig()
	applyDemo(cfg)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, demoLocalIdentity, cfg.Introduction.LocalIdentity)
	assert.Equal(t, time.Second, cfg.Introduction.StartupDelayMin.Duration())

	cfg = config.NewConfig()
	cfg.Introduction.LocalIdentity = "me"
	applyDemo(cfg)
	assert.Equal(t, "me", cfg.Introduction.LocalIdentity)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Empty(t, firstNonEmpty("", ""))
}
