// Package tilegen renders tile pyramids into MBTiles archives through a
// pool of database-backed render workers.
package tilegen

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
)

// Pyramid is the set of tiles covering a bounding box across a zoom range.
type Pyramid struct {
	Bound   orb.Bound
	MinZoom int
	MaxZoom int
}

func (p Pyramid) Validate() error {
	if p.MinZoom < 0 || p.MaxZoom < p.MinZoom {
		return fmt.Errorf("zoom range %d..%d is not ordered", p.MinZoom, p.MaxZoom)
	}
	if p.Bound.Min[0] >= p.Bound.Max[0] || p.Bound.Min[1] >= p.Bound.Max[1] {
		return fmt.Errorf("bounding box is empty")
	}
	return nil
}

// Count returns the number of tiles the pyramid spans.
func (p Pyramid) Count() int64 {
	var total int64
	for z := p.MinZoom; z <= p.MaxZoom; z++ {
		lo, hi := tileRange(p.Bound, maptile.Zoom(z))
		total += int64(hi.X-lo.X+1) * int64(hi.Y-lo.Y+1)
	}
	return total
}

// Tiles streams every tile in the pyramid to out, row by row from the top
// zoom down, and closes the channel when done or when ctx is cancelled.
func (p Pyramid) Tiles(ctx context.Context, out chan<- domain.TileCoord) {
	defer close(out)

	for z := p.MinZoom; z <= p.MaxZoom; z++ {
		lo, hi := tileRange(p.Bound, maptile.Zoom(z))
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				select {
				case out <- domain.TileCoord{Zoom: z, X: int(x), Y: int(y)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// tileRange returns the inclusive tile span covering b at the given zoom.
// The north-west corner carries the low X and Y, the south-east corner the
// high ones.
func tileRange(b orb.Bound, zoom maptile.Zoom) (lo, hi maptile.Tile) {
	lo = maptile.At(orb.Point{b.Min[0], b.Max[1]}, zoom)
	hi = maptile.At(orb.Point{b.Max[0], b.Min[1]}, zoom)

	// Longitude 180 wraps onto column 0.
	if hi.X < lo.X {
		hi.X = uint32(1<<zoom) - 1
	}
	return lo, hi
}
