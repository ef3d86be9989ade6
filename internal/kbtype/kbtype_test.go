package kbtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefaults(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	tests := []struct {
		device string
		want   string
		source Source
	}{
		{"Apple Inc. Magic Keyboard", Apple, SourceList},
		{"Logitech MX Keys Mac Keyboard", Apple, SourceList},
		{"Google Inc. Hammer Keyboard", Chromebook, SourceList},
		{"AT Translated Set 2 keyboard", Windows, SourceList},
		{"IBM Model M 1391401", IBM, SourceList},
		{"Some Apple Clone", Apple, SourceName},
		{"chromebook internal", Chromebook, SourceName},
		{"Keychron K2", Windows, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			r := c.Lookup(tt.device)
			assert.Equal(t, tt.want, r.Type)
			assert.Equal(t, tt.source, r.Source)
			assert.False(t, r.Cached)
		})
	}
}

func TestListSpacesMatchAnyRun(t *testing.T) {
	c, err := New(Options{Lists: map[string][]string{Apple: {"Foo Bar"}}})
	require.NoError(t, err)

	assert.Equal(t, Apple, c.Classify("FOO wireless BAR"))
	assert.Equal(t, Windows, c.Classify("Bar Foo"))
}

func TestDeviceTableBeatsLists(t *testing.T) {
	c, err := New(Options{Devices: map[string]string{"magic keyboard": IBM}})
	require.NoError(t, err)

	r := c.Lookup("Magic Keyboard")
	assert.Equal(t, IBM, r.Type)
	assert.Equal(t, SourceCustom, r.Source)
}

func TestOverrideWinsAndIsNotCached(t *testing.T) {
	c, err := New(Options{Override: Chromebook})
	require.NoError(t, err)

	r := c.Lookup("Magic Keyboard")
	assert.Equal(t, Chromebook, r.Type)
	assert.Equal(t, SourceOverride, r.Source)
	assert.Zero(t, c.CacheLen())
}

func TestCache(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	first := c.Lookup("Keychron K2")
	second := c.Lookup("Keychron K2")
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Type, second.Type)
	assert.Equal(t, 1, c.CacheLen())

	c.Forget()
	assert.Zero(t, c.CacheLen())
}

func TestInvalidTypes(t *testing.T) {
	_, err := New(Options{Override: "apple"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = New(Options{Devices: map[string]string{"x": "Mac"}})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = New(Options{Lists: map[string][]string{"Sun": {"Type 5"}}})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestValid(t *testing.T) {
	for _, typ := range Types {
		assert.True(t, Valid(typ))
	}
	assert.False(t, Valid("windows"))
	assert.False(t, Valid(Unidentified))
}
