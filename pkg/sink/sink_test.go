package sink

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/catalog-sync/pkg/catalog"
	"github.com/saturnines/catalog-sync/pkg/config"
	"github.com/saturnines/catalog-sync/pkg/errors"
)

const testTable = "TM_MAD_Catalog_DROPFR"

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func newMockSink(t *testing.T) (*Sink, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialect, err := DialectFor(config.DriverPostgres)
	require.NoError(t, err)

	s, err := New(db, dialect, testTable, nil)
	require.NoError(t, err)
	return s, mock
}

func sampleRow(offerID string) catalog.CatalogRow {
	price := 100.0
	return catalog.CatalogRow{
		OfferID:         &offerID,
		ProductID:       &offerID,
		PriceWithoutTax: &price,
		VATRate:         catalog.VATRate,
	}
}

func TestReplaceAll(t *testing.T) {
	t.Run("DeletesExistingRows", func(t *testing.T) {
		s, mock := newMockSink(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM " + testTable)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM " + testTable)).
			WillReturnResult(sqlmock.NewResult(0, 10))
		mock.ExpectCommit()

		deleted, err := s.ReplaceAll(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, int64(10), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyTableIssuesNoDelete", func(t *testing.T) {
		s, mock := newMockSink(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM " + testTable)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		deleted, err := s.ReplaceAll(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteFailureRollsBack", func(t *testing.T) {
		s, mock := newMockSink(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM")).
			WillReturnError(fmt.Errorf("permission denied"))
		mock.ExpectRollback()

		deleted, err := s.ReplaceAll(context.Background())
		assert.True(t, errors.Is(err, errors.ErrPersistence))
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, int64(0), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CountFailure", func(t *testing.T) {
		s, mock := newMockSink(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
			WillReturnError(fmt.Errorf("relation does not exist"))

		deleted, err := s.ReplaceAll(context.Background())
		assert.True(t, errors.Is(err, errors.ErrPersistence))
		assert.Equal(t, int64(0), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInsertMany(t *testing.T) {
	insertPrefix := regexp.QuoteMeta("INSERT INTO " + testTable + " (productId, gtin, title")

	t.Run("CommitsBatch", func(t *testing.T) {
		s, mock := newMockSink(t)

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(insertPrefix + ".*" + regexp.QuoteMeta("$34)"))
		prep.ExpectExec().WithArgs(anyArgs(34)...).WillReturnResult(sqlmock.NewResult(0, 1))
		prep.ExpectExec().WithArgs(anyArgs(34)...).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		inserted, err := s.InsertMany(context.Background(), []catalog.CatalogRow{sampleRow("O1"), sampleRow("O2")})
		assert.NoError(t, err)
		assert.Equal(t, 2, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FailureRollsBackWholeBatch", func(t *testing.T) {
		s, mock := newMockSink(t)

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(insertPrefix)
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
		prep.ExpectExec().WillReturnError(fmt.Errorf("value too long"))
		mock.ExpectRollback()

		inserted, err := s.InsertMany(context.Background(), []catalog.CatalogRow{sampleRow("O1"), sampleRow("O2")})
		assert.True(t, errors.Is(err, errors.ErrPersistence))
		assert.Contains(t, err.Error(), "insert row 1")
		assert.Equal(t, 0, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		s, mock := newMockSink(t)

		inserted, err := s.InsertMany(context.Background(), nil)
		assert.NoError(t, err)
		assert.Equal(t, 0, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewRejectsBadTable(t *testing.T) {
	dialect, _ := DialectFor(config.DriverSQLite)
	_, err := New(nil, dialect, "catalog; DROP TABLE x", nil)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestDialect(t *testing.T) {
	pg, err := DialectFor(config.DriverPGX)
	require.NoError(t, err)
	assert.Equal(t, "pgx", pg.Driver)
	assert.Equal(t, "$1, $2, $3", pg.Placeholders(3))

	lite, err := DialectFor(config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "?, ?", lite.Placeholders(2))
	assert.True(t, strings.HasPrefix(lite.CreateTable(testTable, catalog.Columns), "CREATE TABLE IF NOT EXISTS "+testTable+" ("))

	mssql, err := DialectFor(config.DriverSQLServer)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", mssql.Driver)
	assert.Equal(t, "@p1, @p2, @p3", mssql.Placeholders(3))

	ddl := mssql.CreateTable("dbo.TM_MAD_Catalog_DROPFR", catalog.Columns)
	assert.True(t, strings.HasPrefix(ddl, "IF OBJECT_ID(N'dbo.TM_MAD_Catalog_DROPFR', N'U') IS NULL\nCREATE TABLE dbo.TM_MAD_Catalog_DROPFR ("), ddl)
	assert.Contains(t, ddl, "productId NVARCHAR(MAX)")
	assert.Contains(t, ddl, "priceWithoutTax FLOAT")
	assert.Contains(t, ddl, "bestOfferRank BIGINT")
	assert.NotContains(t, ddl, "IF NOT EXISTS")

	_, err = DialectFor("mysql")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	assert.Len(t, columnKinds, len(catalog.Columns))
}

func TestSQLServerSink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dialect, err := DialectFor(config.DriverSQLServer)
	require.NoError(t, err)
	s, err := New(db, dialect, testTable, nil)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("IF OBJECT_ID(N'" + testTable + "', N'U') IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.EnsureTable(context.Background()))

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO " + testTable + " (productId, gtin")).
		ExpectExec().
		WithArgs(anyArgs(len(catalog.Columns))...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inserted, err := s.InsertMany(context.Background(), []catalog.CatalogRow{sampleRow("O1")})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Contains(t, s.insertSQL, "@p34)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, config.Database{Driver: config.DriverSQLite, DSN: ":memory:", ConnectAttempts: 1}, nil)
	require.NoError(t, err)
	defer db.Close()

	dialect, _ := DialectFor(config.DriverSQLite)
	s, err := New(db, dialect, testTable, nil)
	require.NoError(t, err)

	require.NoError(t, s.EnsureTable(ctx))
	require.NoError(t, s.EnsureTable(ctx), "EnsureTable must be idempotent")

	inserted, err := s.InsertMany(ctx, []catalog.CatalogRow{sampleRow("O1"), sampleRow("O2"), sampleRow("O3")})
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	var offerID string
	var price float64
	var title *string
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT offerId, priceWithoutTax, title FROM "+testTable+" WHERE offerId = ?", "O2").Scan(&offerID, &price, &title))
	assert.Equal(t, "O2", offerID)
	assert.Equal(t, 100.0, price)
	assert.Nil(t, title)

	deleted, err := s.ReplaceAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Database{Driver: "oracle", DSN: "x"}, nil)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
