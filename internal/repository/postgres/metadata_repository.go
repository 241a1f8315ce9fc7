package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

type metadataRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMetadataRepository(db *DB) repository.MetadataRepository {
	return &metadataRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *metadataRepository) PostGISVersion(ctx context.Context) (string, error) {
	var version string
	if err := r.db.GetContext(ctx, &version, "SELECT postgis_lib_version()"); err != nil {
		return "", errors.Wrap(errors.ErrDatabaseError, err)
	}
	return version, nil
}

// LayerFields runs the zero-row discovery query against the layer function
// and maps the result columns to TileJSON field types. Columns with no
// TileJSON counterpart, the geometry among them, are left out.
func (r *metadataRepository) LayerFields(ctx context.Context, layer *tileset.Layer) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, sqltomvt.FieldDiscoveryQuery(*layer))
	if err != nil {
		r.logger.Error("Failed to discover layer fields",
			zap.String("layer", layer.ID),
			zap.Error(err),
		)
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}

	fields := make(map[string]string)
	for _, ct := range types {
		name := ct.Name()
		if name == layer.GeometryField {
			continue
		}
		if fieldType, ok := tileJSONType(ct.DatabaseTypeName()); ok {
			fields[name] = fieldType
		}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError, err)
	}
	return fields, nil
}

func tileJSONType(dbType string) (string, bool) {
	switch strings.ToUpper(dbType) {
	case "BOOL":
		return "Boolean", true
	case "TEXT", "VARCHAR", "BPCHAR", "NAME":
		return "String", true
	case "INT2", "INT4", "INT8", "FLOAT4", "FLOAT8", "NUMERIC":
		return "Number", true
	default:
		return "", false
	}
}
