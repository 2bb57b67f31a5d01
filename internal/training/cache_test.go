package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureCache_GetSet(t *testing.T) {
	c := NewSignatureCache(4)
	_, ok := c.Get("s1")
	assert.False(t, ok)

	c.Set("s1", "espada")
	c.Set("s1", "daga")
	sig, ok := c.Get("s1")
	assert.True(t, ok)
	assert.Equal(t, "daga", sig)
	assert.Equal(t, 1, c.Len())
}

func TestSignatureCache_EvictsLeastRecentlyTouched(t *testing.T) {
	c := NewSignatureCache(2)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok, "b was the oldest entry")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestSignatureCache_EmptySessionKey(t *testing.T) {
	c := NewSignatureCache(1)
	c.Set("", "x")
	c.Set("other", "y")
	_, ok := c.Get("")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
