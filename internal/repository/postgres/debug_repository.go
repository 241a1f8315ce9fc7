package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/inspect"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
)

type debugRepository struct {
	db     *DB
	sqlxDB *sqlx.DB
	logger *zap.Logger
}

// NewDebugRepository expects a DB opened with NewDebug so that server
// notices are captured rather than logged.
func NewDebugRepository(db *DB) repository.DebugRepository {
	return &debugRepository{
		db:     db,
		sqlxDB: db.DB,
		logger: db.logger,
	}
}

func (r *debugRepository) RunLayerQuery(ctx context.Context, query *sqltomvt.LayerQuery) (*inspect.LayerResult, error) {
	// Discard anything raised before this layer so the captured notices
	// belong to it alone.
	r.db.DrainNotices()

	rows, err := r.sqlxDB.QueryxContext(ctx, query.SQL())
	if err != nil {
		r.logger.Error("Layer query failed",
			zap.String("layer", query.LayerID),
			zap.Error(err),
		)
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}
	defer rows.Close()

	result := &inspect.LayerResult{
		LayerID: query.LayerID,
		Columns: query.Columns,
	}

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseError, err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}

	result.Notices = append(result.Notices, r.db.DrainNotices()...)
	return result, nil
}
