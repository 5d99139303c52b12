package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)

	got, ok := ParseTime("2024-10-10T10:10:10Z")
	require.True(t, ok)
	assert.True(t, got.Equal(want))

	got, ok = ParseTime(strconv.FormatInt(want.Unix(), 10))
	require.True(t, ok)
	assert.True(t, got.Equal(want))

	got, ok = ParseTime("2024-10-10")
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)))

	_, ok = ParseTime("yesterday")
	assert.False(t, ok)
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.Equal(t, def, ParseTimeDefault("", def))
	assert.Equal(t, def, ParseTimeDefault("-5", def))
}
