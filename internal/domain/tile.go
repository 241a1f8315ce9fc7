package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
)

// TileCoord addresses one tile in the standard web-map z/x/y scheme.
type TileCoord struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

func NewTileCoord(zoom, x, y int) (TileCoord, error) {
	t := TileCoord{Zoom: zoom, X: x, Y: y}
	if err := t.Validate(); err != nil {
		return TileCoord{}, err
	}
	return t, nil
}

// ParseTileCoord reads a tile id in "zoom/x/y" form.
func ParseTileCoord(s string) (TileCoord, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return TileCoord{}, errors.Newf(errors.ErrInvalidTileCoordinates,
			"tile id %q must be in zoom/x/y form", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return TileCoord{}, errors.Newf(errors.ErrInvalidTileCoordinates,
				"tile id %q must be in zoom/x/y form", s)
		}
		vals[i] = v
	}
	return NewTileCoord(vals[0], vals[1], vals[2])
}

// Validate enforces zoom >= 0 and 0 <= x,y < 2^zoom. The check runs before
// any query is built, so an out-of-range coordinate never reaches the
// database.
func (t TileCoord) Validate() error {
	if t.Zoom < 0 || t.X < 0 || t.Y < 0 {
		return errors.Newf(errors.ErrInvalidTileCoordinates,
			"tile %s is out of range", t)
	}
	if t.Zoom < 63 {
		limit := int64(1) << uint(t.Zoom)
		if int64(t.X) >= limit || int64(t.Y) >= limit {
			return errors.Newf(errors.ErrInvalidTileCoordinates,
				"tile %s is out of range: x and y must be below %d at zoom %d",
				t, limit, t.Zoom)
		}
	}
	return nil
}

func (t TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Bound returns the geographic extent of the tile. Display helper only;
// query envelopes are built server-side by the geometry backend.
func (t TileCoord) Bound() orb.Bound {
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Zoom)).Bound()
}
