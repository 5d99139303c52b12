package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTickers(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"AAPL", []string{"AAPL"}},
		{" aapl , msft,AAPL,, ", []string{"AAPL", "MSFT"}},
		{"", []string{}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTickers(tt.in), tt.in)
	}
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, -3, ParseIntDefault("-3", 7))
}
