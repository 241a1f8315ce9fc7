package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

type tileRepository struct {
	db     *sqlx.DB
	stmt   *sqlx.Stmt
	logger *zap.Logger
}

// NewTileRepository composes the tile query for the whole tileset once,
// prepares it, and serves every request from the prepared statement.
func NewTileRepository(db *DB, ts *tileset.Tileset) (repository.TileRepository, error) {
	query, err := sqltomvt.ComposeTileTemplate(ts, domain.LayerFilter{}, sqltomvt.ServingOptions(ts))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Preparex(query.SQL())
	if err != nil {
		db.logger.Error("Failed to prepare tile statement", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}

	return &tileRepository{
		db:     db.DB,
		stmt:   stmt,
		logger: db.logger,
	}, nil
}

// NewTileRepositoryFromSQL prepares a caller-supplied query template instead
// of composing one from the tileset. The template must bind zoom, x and y as
// $1, $2 and $3 and return a single bytea column.
func NewTileRepositoryFromSQL(db *DB, query string) (repository.TileRepository, error) {
	stmt, err := db.Preparex(query)
	if err != nil {
		db.logger.Error("Failed to prepare tile statement", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}

	return &tileRepository{
		db:     db.DB,
		stmt:   stmt,
		logger: db.logger,
	}, nil
}

func (r *tileRepository) RenderTile(ctx context.Context, tile domain.TileCoord) ([]byte, error) {
	if err := tile.Validate(); err != nil {
		return nil, err
	}

	var data []byte
	err := r.stmt.QueryRowxContext(ctx, tile.Zoom, tile.X, tile.Y).Scan(&data)
	if err == sql.ErrNoRows {
		return []byte{}, nil
	}
	if err != nil {
		r.logger.Error("Failed to render tile",
			zap.String("tile", tile.String()),
			zap.Error(err),
		)
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}

	if data == nil {
		data = []byte{}
	}
	return data, nil
}
