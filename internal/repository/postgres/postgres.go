package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/config"
	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
)

type DB struct {
	*sqlx.DB
	logger  *zap.Logger
	notices *noticeCollector
}

func New(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := connect(cfg, func(_ *pgconn.PgConn, n *pgconn.Notice) {
		logger.Debug("SQL notice",
			zap.String("severity", n.Severity),
			zap.String("message", n.Message),
		)
	})
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := ping(db); err != nil {
		return nil, err
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName),
	)

	return &DB{DB: db, logger: logger}, nil
}

// NewDebug opens a single-connection pool that accumulates server notices
// instead of logging them, so callers can relay them per query. Keeping the
// pool at one connection ties every notice to the query that raised it.
func NewDebug(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	notices := &noticeCollector{}
	db, err := connect(cfg, func(_ *pgconn.PgConn, n *pgconn.Notice) {
		notices.add(domain.Notice{Severity: n.Severity, Message: n.Message})
	})
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ping(db); err != nil {
		return nil, err
	}

	return &DB{DB: db, logger: logger, notices: notices}, nil
}

func connect(cfg *config.DatabaseConfig, onNotice pgconn.NoticeHandler) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	connConfig.OnNotice = onNotice

	db, err := sqlx.Connect("pgx", stdlib.RegisterConnConfig(connConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func ping(db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	db.logger.Info("Closing PostgreSQL connection")
	return db.DB.Close()
}

func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// CheckPostGIS verifies the server carries a usable PostGIS and returns its
// version. ST_TileEnvelope arrived in 3.0, so anything older is rejected.
func (db *DB) CheckPostGIS(ctx context.Context) (string, error) {
	var version string
	if err := db.GetContext(ctx, &version, "SELECT postgis_lib_version()"); err != nil {
		return "", errors.Wrap(errors.ErrPostGISVersion, err)
	}

	if !VersionAtLeast(version, sqltomvt.MinPostGISVersion) {
		return version, errors.Newf(errors.ErrPostGISVersion,
			"PostGIS %s is older than the required %s", version, sqltomvt.MinPostGISVersion)
	}
	return version, nil
}

// DrainNotices returns the notices collected since the previous drain and
// resets the buffer. Pools opened with New never collect, so this is a no-op
// for them.
func (db *DB) DrainNotices() []domain.Notice {
	if db.notices == nil {
		return nil
	}
	return db.notices.drain()
}

// NewDBForTest creates a DB instance for testing with provided database and logger
func NewDBForTest(sqlxDB *sqlx.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{
		DB:      sqlxDB,
		logger:  logger,
		notices: &noticeCollector{},
	}
}

type noticeCollector struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (c *noticeCollector) add(n domain.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

func (c *noticeCollector) drain() []domain.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.notices
	c.notices = nil
	return drained
}

// VersionAtLeast compares dotted numeric versions, ignoring any non-numeric
// suffix the server appends.
func VersionAtLeast(have, min string) bool {
	hp := versionParts(have)
	mp := versionParts(min)
	for i := 0; i < len(mp); i++ {
		h := 0
		if i < len(hp) {
			h = hp[i]
		}
		if h != mp[i] {
			return h > mp[i]
		}
	}
	return true
}

func versionParts(v string) []int {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == ' ' || r == '-'
	})
	parts := make([]int, 0, 3)
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}
