package knowledge

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseLookup(t *testing.T) {
	base := NewBase(auditorDoc)

	answer, ok := base.Lookup(Normalize("who is the auditor"))
	require.True(t, ok)
	assert.Equal(t, "D & Partners CPA Limited", answer)

	_, ok = base.Lookup(Normalize("who audits you annually and what did they find"))
	assert.False(t, ok)
}

func TestNilBase(t *testing.T) {
	var base *Base

	_, ok := base.Lookup("anything")
	assert.False(t, ok)
	assert.Equal(t, 0, base.Len())
	assert.Nil(t, base.Questions())
}

func TestBaseHashFollowsContent(t *testing.T) {
	a := NewBase(auditorDoc)
	b := NewBase(auditorDoc)
	c := NewBase(auditorDoc + "\n")

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
	assert.Len(t, a.Hash, 64)
}

func TestCacheReusesParsedBase(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)

	first := cache.Load(auditorDoc)
	second := cache.Load(auditorDoc)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	other := cache.Load("\n**Question:**\nQ\n**Answer:**\nA")
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, cache.Len())
}

func TestCacheEvicts(t *testing.T) {
	cache, err := NewCache(1)
	require.NoError(t, err)

	first := cache.Load("one")
	cache.Load("two")
	assert.Equal(t, 1, cache.Len())
	assert.NotSame(t, first, cache.Load("one"))
}

func TestParseErrorUnwraps(t *testing.T) {
	err := &ParseError{Source: "kb.md", Err: os.ErrNotExist}

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "kb.md")
}
