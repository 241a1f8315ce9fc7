package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
)

func TestLayerFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  LayerFilter
		wantErr bool
	}{
		{
			name:   "empty filter selects everything",
			filter: LayerFilter{},
		},
		{
			name:   "include list",
			filter: LayerFilter{IDs: []string{"water"}},
		},
		{
			name:   "exclude list with entries",
			filter: LayerFilter{IDs: []string{"water"}, Exclude: true},
		},
		{
			name:    "exclude mode with empty list is a configuration error",
			filter:  LayerFilter{Exclude: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidLayerFilter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLayerFilter_Allows(t *testing.T) {
	tests := []struct {
		name   string
		filter LayerFilter
		id     string
		want   bool
	}{
		{name: "no filter allows all", filter: LayerFilter{}, id: "water", want: true},
		{name: "include hit", filter: LayerFilter{IDs: []string{"water", "roads"}}, id: "roads", want: true},
		{name: "include miss", filter: LayerFilter{IDs: []string{"water"}}, id: "buildings", want: false},
		{name: "exclude hit", filter: LayerFilter{IDs: []string{"water"}, Exclude: true}, id: "water", want: false},
		{name: "exclude miss", filter: LayerFilter{IDs: []string{"water"}, Exclude: true}, id: "buildings", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Allows(tt.id))
		})
	}
}
