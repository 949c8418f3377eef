package storage

import (
	"testing"

	"github.com/dep2p/go-introducer/config"
	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// TestModule 测试 fx 模块提供引擎并在停止时关闭
func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.DataDir = t.TempDir()

	var root *kv.Store
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&root),
	)
	app.RequireStart()

	require.NotNil(t, root)
	require.NoError(t, root.Put([]byte("k"), []byte("v")))
	v, err := root.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	app.RequireStop()
	_, err = root.Get([]byte("k"))
	assert.Error(t, err)
}

// TestNewMemory 测试内存引擎
func TestNewMemory(t *testing.T) {
	eng, err := NewMemory()
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Start())
	_, err = eng.Get([]byte("missing"))
	assert.True(t, engine.IsNotFound(err))

	require.NoError(t, eng.Put([]byte("a"), []byte("1")))
	v, err := eng.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
}
