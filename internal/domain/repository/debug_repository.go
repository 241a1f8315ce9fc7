package repository

import (
	"context"

	"github.com/dbrnz/openmaptiles-tools/internal/inspect"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
)

// DebugRepository runs per-layer queries for tile inspection
type DebugRepository interface {
	// RunLayerQuery executes a single layer query and captures its rows
	// together with any notices the server raised while running it.
	RunLayerQuery(ctx context.Context, query *sqltomvt.LayerQuery) (*inspect.LayerResult, error)
}
