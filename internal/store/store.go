// Package store persists resolved locations in a relational database.
// Postgres is the production backend; SQLite serves local runs and tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/kjstillabower/city-explorer-service/internal/models"
	"github.com/kjstillabower/city-explorer-service/internal/observability"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	tableName = "location"
)

var ErrUnsupportedDriver = errors.New("unsupported store driver")

// LocationStore is the persistent side of the location cache. Lookups are by
// exact search query; records are never updated or deleted.
type LocationStore interface {
	Find(ctx context.Context, query string) (models.LocationRecord, bool, error)
	Insert(ctx context.Context, rec models.LocationRecord) error
	Ping(ctx context.Context) error
	Close() error
}

// SQLStore implements LocationStore over database/sql with goqu-built statements.
type SQLStore struct {
	db      *sql.DB
	qb      goqu.DialectWrapper
	dialect string
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps :memory: databases consistent across calls.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return NewSQLStore(db, driver)
}

// NewSQLStore wraps an existing handle. driver selects the SQL dialect.
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, qb: goqu.Dialect(dialect), dialect: dialect}, nil
}

func dialectFor(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "postgres", nil
	case DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Find returns the oldest record stored for query. ok is false on a miss.
func (s *SQLStore) Find(ctx context.Context, query string) (rec models.LocationRecord, ok bool, err error) {
	start := time.Now()
	defer func() { observability.RecordStoreOperation("find", start, err) }()

	stmt, args, err := s.qb.From(tableName).
		Select("formatted_query", "latitude", "longitude").
		Where(goqu.Ex{"location_name": query}).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return models.LocationRecord{}, false, fmt.Errorf("build find query: %w", err)
	}

	var formatted sql.NullString
	var lat, lon sql.NullFloat64
	err = s.db.QueryRowContext(ctx, stmt, args...).Scan(&formatted, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LocationRecord{}, false, nil
	}
	if err != nil {
		return models.LocationRecord{}, false, fmt.Errorf("find location %q: %w", query, err)
	}

	return models.LocationRecord{
		SearchQuery:    query,
		FormattedQuery: formatted.String,
		Latitude:       lat.Float64,
		Longitude:      lon.Float64,
	}, true, nil
}

func (s *SQLStore) Insert(ctx context.Context, rec models.LocationRecord) (err error) {
	start := time.Now()
	defer func() { observability.RecordStoreOperation("insert", start, err) }()

	stmt, args, err := s.qb.Insert(tableName).Rows(goqu.Record{
		"location_name":   rec.SearchQuery,
		"formatted_query": rec.FormattedQuery,
		"latitude":        rec.Latitude,
		"longitude":       rec.Longitude,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err = s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert location %q: %w", rec.SearchQuery, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
