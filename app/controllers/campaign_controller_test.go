package controllers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Help rebuild the school", "help-rebuild-the-school"},
		{"  Clean Water for All!  ", "clean-water-for-all"},
		{"Ärzte ohne Grenzen 2026", "rzte-ohne-grenzen-2026"},
		{"---", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in))
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	assert.LessOrEqual(t, len(slugify(long)), 180)
}

func TestParseAmountField(t *testing.T) {
	got, err := parseAmountField("250.00")
	require.NoError(t, err)
	assert.Equal(t, int64(25000), got)

	got, err = parseAmountField("19.99")
	require.NoError(t, err)
	assert.Equal(t, int64(1999), got)

	_, err = parseAmountField("")
	assert.Error(t, err)

	_, err = parseAmountField("abc")
	assert.Error(t, err)

	_, err = parseAmountField("-5")
	assert.Error(t, err)

	_, err = parseAmountField("0")
	assert.Error(t, err)
}
