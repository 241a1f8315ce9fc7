package tilegen_test

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/utils"
	"github.com/dbrnz/openmaptiles-tools/internal/worker/tilegen"
)

func TestPyramid_Count(t *testing.T) {
	t.Run("world pyramid", func(t *testing.T) {
		p := tilegen.Pyramid{Bound: utils.WorldBounds(), MinZoom: 0, MaxZoom: 2}
		assert.Equal(t, int64(1+4+16), p.Count())
	})

	t.Run("single zoom", func(t *testing.T) {
		p := tilegen.Pyramid{Bound: utils.WorldBounds(), MinZoom: 3, MaxZoom: 3}
		assert.Equal(t, int64(64), p.Count())
	})
}

func TestPyramid_Tiles_MatchesBoundCover(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{7.9, 47.2}, Max: orb.Point{9.1, 47.9}}
	p := tilegen.Pyramid{Bound: bound, MinZoom: 8, MaxZoom: 10}

	ch := make(chan domain.TileCoord, 64)
	go p.Tiles(context.Background(), ch)

	got := map[int]maptile.Set{8: {}, 9: {}, 10: {}}
	var streamed int64
	for tile := range ch {
		set, ok := got[tile.Zoom]
		require.True(t, ok, "tile %s outside the zoom range", tile)
		set[maptile.New(uint32(tile.X), uint32(tile.Y), maptile.Zoom(tile.Zoom))] = true
		streamed++
	}

	assert.Equal(t, p.Count(), streamed)
	for z := 8; z <= 10; z++ {
		expected := tilecover.Bound(bound, maptile.Zoom(z))
		assert.Equal(t, expected, got[z], "zoom %d cover mismatch", z)
	}
}

func TestPyramid_Tiles_CancelClosesFeed(t *testing.T) {
	p := tilegen.Pyramid{Bound: utils.WorldBounds(), MinZoom: 8, MaxZoom: 8}
	total := p.Count()

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan domain.TileCoord)
	go p.Tiles(ctx, ch)

	for i := 0; i < 3; i++ {
		<-ch
	}
	cancel()

	var rest int64
	for range ch {
		rest++
	}
	assert.Less(t, rest+3, total)
}

func TestPyramid_Validate(t *testing.T) {
	tests := []struct {
		name string
		p    tilegen.Pyramid
	}{
		{"inverted zoom range", tilegen.Pyramid{Bound: utils.WorldBounds(), MinZoom: 5, MaxZoom: 2}},
		{"negative zoom", tilegen.Pyramid{Bound: utils.WorldBounds(), MinZoom: -1, MaxZoom: 2}},
		{"empty bound", tilegen.Pyramid{MinZoom: 0, MaxZoom: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.p.Validate())
		})
	}

	assert.NoError(t, tilegen.Pyramid{Bound: utils.WorldBounds(), MinZoom: 0, MaxZoom: 14}.Validate())
}
