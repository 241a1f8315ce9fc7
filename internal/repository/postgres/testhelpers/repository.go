package testhelpers

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/postgres"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewTileRepositoryForTest prepares a tile repository for the given tileset
func NewTileRepositoryForTest(t *testing.T, db *postgres.DB, ts *tileset.Tileset) repository.TileRepository {
	repo, err := postgres.NewTileRepository(db, ts)
	if err != nil {
		t.Fatalf("create tile repository: %v", err)
	}
	return repo
}

// NewDebugRepositoryForTest creates a debug repository over the given DB
func NewDebugRepositoryForTest(db *postgres.DB) repository.DebugRepository {
	return postgres.NewDebugRepository(db)
}

// NewMetadataRepositoryForTest creates a metadata repository over the given DB
func NewMetadataRepositoryForTest(db *postgres.DB) repository.MetadataRepository {
	return postgres.NewMetadataRepository(db)
}
