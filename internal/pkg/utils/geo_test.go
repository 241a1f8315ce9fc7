package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("-10.5, -20, 30, 45.25")
	require.NoError(t, err)
	assert.Equal(t, -10.5, b.Min[0])
	assert.Equal(t, -20.0, b.Min[1])
	assert.Equal(t, 30.0, b.Max[0])
	assert.Equal(t, 45.25, b.Max[1])
}

func TestParseBounds_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		bounds string
	}{
		{"too few values", "1,2,3"},
		{"not a number", "a,b,c,d"},
		{"west beyond range", "-190,0,10,10"},
		{"west east inverted", "30,0,10,10"},
		{"south north inverted", "0,40,10,10"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBounds(tt.bounds)
			assert.Error(t, err)
		})
	}
}

func TestWorldBounds(t *testing.T) {
	b := WorldBounds()
	assert.Equal(t, -180.0, b.Min[0])
	assert.Equal(t, 180.0, b.Max[0])
	assert.InDelta(t, 85.05, b.Max[1], 0.01)
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(55.75, 37.61))
	assert.True(t, ValidateCoordinates(-90, 180))
	assert.False(t, ValidateCoordinates(91, 0))
	assert.False(t, ValidateCoordinates(0, -181))
}
