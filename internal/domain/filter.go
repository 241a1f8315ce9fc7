package domain

import "github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"

// LayerFilter restricts which declared layers participate in a tile build.
// IDs name layers; when Exclude is set the named layers are omitted instead
// of selected. Filters subtract from declaration order, never reorder it.
type LayerFilter struct {
	IDs     []string `json:"ids"`
	Exclude bool     `json:"exclude"`
}

// Validate rejects an exclusion filter naming no layers. Treating it as
// "exclude nothing" would silently select every layer and mask a caller
// configuration mistake.
func (f LayerFilter) Validate() error {
	if f.Exclude && len(f.IDs) == 0 {
		return errors.ErrInvalidLayerFilter
	}
	return nil
}

// Allows reports whether the layer id passes the filter. An empty include
// list selects all layers.
func (f LayerFilter) Allows(id string) bool {
	if len(f.IDs) == 0 {
		return true
	}
	for _, v := range f.IDs {
		if v == id {
			return !f.Exclude
		}
	}
	return f.Exclude
}
