package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/city-explorer-service/internal/models"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLStore(db, DriverPostgres)
	require.NoError(t, err)
	return s, mock
}

func TestSQLStore_Find_Postgres_Hit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "formatted_query", "latitude", "longitude" FROM "location" WHERE ("location_name" = $1) ORDER BY "id" ASC`)).
		WithArgs("seattle").
		WillReturnRows(sqlmock.NewRows([]string{"formatted_query", "latitude", "longitude"}).
			AddRow("Seattle, WA, USA", 47.6062, -122.3321))

	rec, ok, err := s.Find(context.Background(), "seattle")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.LocationRecord{
		SearchQuery:    "seattle",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	}, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Find_Postgres_Miss(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "location"`)).
		WithArgs("atlantis").
		WillReturnRows(sqlmock.NewRows([]string{"formatted_query", "latitude", "longitude"}))

	_, ok, err := s.Find(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Find_Postgres_Error(t *testing.T) {
	s, mock := newMockStore(t)
	dbErr := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "location"`)).
		WithArgs("seattle").
		WillReturnError(dbErr)

	_, ok, err := s.Find(context.Background(), "seattle")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, ok)
}

func TestSQLStore_Insert_Postgres(t *testing.T) {
	s, mock := newMockStore(t)

	// goqu orders record columns alphabetically.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "location" ("formatted_query", "latitude", "location_name", "longitude") VALUES ($1, $2, $3, $4)`)).
		WithArgs("Seattle, WA, USA", 47.6062, "seattle", -122.3321).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Insert(context.Background(), models.LocationRecord{
		SearchQuery:    "seattle",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Insert_Postgres_Error(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "location"`)).
		WillReturnError(errors.New("disk full"))

	err := s.Insert(context.Background(), models.LocationRecord{SearchQuery: "seattle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seattle")
}

func TestNewSQLStore_UnsupportedDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(db, "oracle")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestSQLStore_SQLite_RoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	_, ok, err := s.Find(ctx, "seattle")
	require.NoError(t, err)
	assert.False(t, ok)

	want := models.LocationRecord{
		SearchQuery:    "seattle",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	}
	require.NoError(t, s.Insert(ctx, want))

	got, ok, err := s.Find(ctx, "seattle")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Exact match only.
	_, ok, err = s.Find(ctx, "Seattle")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStore_SQLite_DuplicateInsertsAllowed(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	first := models.LocationRecord{SearchQuery: "paris", FormattedQuery: "Paris, France", Latitude: 48.85, Longitude: 2.35}
	second := models.LocationRecord{SearchQuery: "paris", FormattedQuery: "Paris, TX, USA", Latitude: 33.66, Longitude: -95.55}
	require.NoError(t, s.Insert(ctx, first))
	require.NoError(t, s.Insert(ctx, second))

	got, ok, err := s.Find(ctx, "paris")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got, "oldest row wins")
}

func TestSQLStore_SQLite_MigrateIdempotent(t *testing.T) {
	s := openSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, s.Ping(context.Background()))
}
