package introduction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestChains_Advance 测试链在上限前逐步推进
func TestChains_Advance(t *testing.T) {
	c := newChains(3)
	c.await("x", 0)

	next, ok := c.advance("x", 0)
	assert.True(t, ok)
	assert.Equal(t, 1, next)

	c.await("x", 3)
	_, ok = c.advance("x", 3)
	assert.False(t, ok, "达到上限后不再推进")
	assert.Equal(t, 0, c.len())
}

// TestChains_StaleIndex 测试只有正在等待的序号才能推进或结束链
func TestChains_StaleIndex(t *testing.T) {
	c := newChains(10)
	c.await("x", 2)

	_, ok := c.advance("x", 1)
	assert.False(t, ok)

	c.end("x", 1)
	idx, ok := c.awaiting("x")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	c.end("x", 2)
	_, ok = c.awaiting("x")
	assert.False(t, ok)

	_, ok = c.advance("unknown", 0)
	assert.False(t, ok)
}

// TestChains_ZeroLimit 测试上限为 0 时只请求序号 0
func TestChains_ZeroLimit(t *testing.T) {
	c := newChains(0)
	c.await("x", 0)
	_, ok := c.advance("x", 0)
	assert.False(t, ok)
}

// TestChains_Reset 测试重置结束所有链
func TestChains_Reset(t *testing.T) {
	c := newChains(3)
	c.await("a", 0)
	c.await("b", 1)
	c.reset()
	assert.Equal(t, 0, c.len())
	_, ok := c.advance("a", 0)
	assert.False(t, ok)
}
