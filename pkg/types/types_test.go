package types

import (
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIdentityIDFromPublicKey 测试公钥派生 ID
func TestIdentityIDFromPublicKey(t *testing.T) {
	a := IdentityIDFromPublicKey([]byte("key-a"))
	b := IdentityIDFromPublicKey([]byte("key-b"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, IdentityIDFromPublicKey([]byte("key-a")))
	raw, err := base58.Decode(a.String())
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Len(t, a.ShortString(), 8)
	assert.NoError(t, a.Validate())
}

func TestIdentityID_Validate(t *testing.T) {
	assert.ErrorIs(t, IdentityID("").Validate(), ErrEmptyIdentityID)
	assert.ErrorIs(t, IdentityID("a/b").Validate(), ErrInvalidIdentityID)
	assert.NoError(t, IdentityID("alice").Validate())
}

func TestIdentity_HasContext(t *testing.T) {
	id := Identity{ID: "alice", Contexts: []string{"Chat", IntroductionContext}}
	assert.True(t, id.OffersIntroduction())
	assert.False(t, id.HasContext("Mail"))

	none := Identity{ID: "bob"}
	assert.False(t, none.OffersIntroduction())
}

// TestPuzzle_Lifecycle 测试谜题过期与日期
func TestPuzzle_Lifecycle(t *testing.T) {
	created := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	p := Puzzle{CreatedAt: created, ValidUntil: created.Add(time.Hour)}

	assert.False(t, p.IsSolved())
	assert.False(t, p.Expired(created))
	assert.True(t, p.Expired(created.Add(2*time.Hour)))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), p.Day())

	var forever Puzzle
	assert.False(t, forever.Expired(time.Now()))
}
