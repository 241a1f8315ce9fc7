package testhelpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// TestTilesetYAML declares the tileset the fixtures below back: one layer
// with a generalized view up to zoom 8 and one layer whose function raises
// notices.
const TestTilesetYAML = `tileset:
  name: Test Houses
  id: test-houses
  version: 1.0.0
  attribution: test data
  minzoom: 0
  maxzoom: 14
  languages:
    - en
    - de
  layers:
    - layer:
        id: houses
        description: Small building test layer
        min_zoom: 0
        max_zoom: 14
        fields:
          class: building class
          height: height in meters
          listed: heritage register flag
        source:
          function: test_layer_houses
        generalization:
          - view: test_houses_gen8
            max_zoom: 8
    - layer:
        id: noisy
        min_zoom: 0
        max_zoom: 14
        source:
          function: test_layer_noisy
`

var fixtureStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE EXTENSION IF NOT EXISTS hstore`,
	`DROP VIEW IF EXISTS test_houses_gen8`,
	`DROP TABLE IF EXISTS test_houses CASCADE`,
	`CREATE TABLE test_houses (
		osm_id bigint,
		name text,
		tags hstore,
		class text,
		height integer,
		listed boolean,
		geometry geometry(Point, 3857)
	)`,
	`INSERT INTO test_houses (osm_id, name, tags, class, height, listed, geometry) VALUES
		(101, 'Village Hall', '"name:en"=>"Village Hall", "name:de"=>"Dorfhalle"'::hstore, 'civic', 12, true,
			ST_Transform(ST_SetSRID(ST_MakePoint(11.0005, 47.0005), 4326), 3857)),
		(102, 'Alte Muehle', '"name:de"=>"Alte Muehle"'::hstore, 'mill', 8, false,
			ST_Transform(ST_SetSRID(ST_MakePoint(11.0015, 47.0015), 4326), 3857))`,
	`CREATE VIEW test_houses_gen8 AS SELECT * FROM test_houses`,
	`CREATE OR REPLACE FUNCTION test_layer_houses(bbox geometry, zoom_level integer)
	RETURNS TABLE(osm_id bigint, name text, tags hstore, class text, height integer, listed boolean, geometry geometry) AS $$
		SELECT osm_id, name, tags, class, height, listed, geometry
		FROM test_houses
		WHERE geometry && bbox
	$$ LANGUAGE sql STABLE`,
	`CREATE OR REPLACE FUNCTION test_layer_noisy(bbox geometry, zoom_level integer)
	RETURNS TABLE(osm_id bigint, name text, tags hstore, geometry geometry) AS $$
	BEGIN
		RAISE NOTICE 'noisy layer scanned at zoom %', zoom_level;
		RETURN QUERY
		SELECT h.osm_id, h.name, h.tags, h.geometry
		FROM test_houses h
		WHERE h.geometry && bbox;
	END
	$$ LANGUAGE plpgsql STABLE`,
}

var fixtureTeardown = []string{
	`DROP FUNCTION IF EXISTS test_layer_noisy(geometry, integer)`,
	`DROP FUNCTION IF EXISTS test_layer_houses(geometry, integer)`,
	`DROP VIEW IF EXISTS test_houses_gen8`,
	`DROP TABLE IF EXISTS test_houses CASCADE`,
}

// ApplyFixtures creates the test schema, replacing any previous run's state
func ApplyFixtures(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range fixtureStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply fixture: %w", err)
		}
	}
	return nil
}

// DropFixtures removes everything ApplyFixtures created
func DropFixtures(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range fixtureTeardown {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop fixture: %w", err)
		}
	}
	return nil
}

// LoadTestTileset parses the fixture tileset definition
func LoadTestTileset(t *testing.T) *tileset.Tileset {
	ts, err := tileset.Parse([]byte(TestTilesetYAML), nil)
	if err != nil {
		t.Fatalf("parse test tileset: %v", err)
	}
	return ts
}
