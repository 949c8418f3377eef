package introduction

import (
	"fmt"
	"testing"

	"github.com/dep2p/go-introducer/pkg/types"
	"github.com/stretchr/testify/assert"
)

// TestWindow_Capacity 测试窗口不超过容量且淘汰最旧的身份
func TestWindow_Capacity(t *testing.T) {
	w := NewWindow(3)

	for i := 0; i < 5; i++ {
		w.Remember(types.IdentityID(fmt.Sprintf("id-%d", i)))
		assert.LessOrEqual(t, w.Len(), 3)
	}

	assert.Equal(t, []types.IdentityID{"id-2", "id-3", "id-4"}, w.Members())
	assert.False(t, w.Contains("id-0"))
	assert.False(t, w.Contains("id-1"))
	assert.True(t, w.Contains("id-4"))
}

// TestWindow_RememberMovesToNewest 测试重复记住的身份移到最新位置
func TestWindow_RememberMovesToNewest(t *testing.T) {
	w := NewWindow(3)
	w.Remember("a")
	w.Remember("b")
	w.Remember("c")

	// Contains 不改变顺序
	assert.True(t, w.Contains("a"))
	assert.Equal(t, []types.IdentityID{"a", "b", "c"}, w.Members())

	w.Remember("a")
	assert.Equal(t, []types.IdentityID{"b", "c", "a"}, w.Members())

	evicted := w.Remember("d")
	assert.True(t, evicted)
	assert.False(t, w.Contains("b"))
	assert.True(t, w.Contains("a"))
}

// TestWindow_Clear 测试清空
func TestWindow_Clear(t *testing.T) {
	w := NewWindow(2)
	w.Remember("a")
	w.Remember("b")
	w.Clear()

	assert.Equal(t, 0, w.Len())
	assert.False(t, w.Contains("a"))
	assert.Empty(t, w.snapshot())
}
