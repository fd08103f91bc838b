package archive

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errConnReset = errors.New("read tcp 127.0.0.1:5432: connection reset by peer")

func newMockProxy(t *testing.T) (*Proxy, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	require.NoError(t, err)

	return New(db), mock
}

func TestKindString(t *testing.T) {
	require.Equal(t, "connection failed", KindConnectionFailed.String())
	require.Equal(t, "resolution failed", KindResolutionFailed.String())
	require.Equal(t, "query failed", KindQueryFailed.String())
	require.Equal(t, "unknown kind 0", Kind(0).String())
}

func TestErrorChain(t *testing.T) {
	err := errors.Wrap(newError(KindQueryFailed, "LookupAt", errConnReset), "serving state_queryStorageAt")

	require.True(t, IsKind(err, KindQueryFailed))
	require.False(t, IsKind(err, KindResolutionFailed))
	require.False(t, IsKind(errConnReset, KindQueryFailed))
	require.True(t, errors.Is(err, errConnReset))
	require.Contains(t, err.Error(), "LookupAt: query failed")

	var archiveErr *Error
	require.True(t, errors.As(err, &archiveErr))
	require.Equal(t, errConnReset, errors.Cause(archiveErr))
}

func TestResolutionFailureIsNotEmpty(t *testing.T) {
	proxy, mock := newMockProxy(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "blocks"`).WillReturnError(errConnReset)
	blocks, err := proxy.BlocksByNumber(ctx, []uint64{2, 3})
	require.Error(t, err)
	require.Nil(t, blocks)
	require.True(t, IsKind(err, KindResolutionFailed))

	mock.ExpectQuery(`SELECT \* FROM "blocks"`).WillReturnError(errConnReset)
	blocks, err = proxy.BlocksByHash(ctx, [][]byte{blockHash(2)})
	require.Error(t, err)
	require.Nil(t, blocks)
	require.True(t, IsKind(err, KindResolutionFailed))
	require.True(t, errors.Is(err, errConnReset))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageFailureIsTyped(t *testing.T) {
	proxy, mock := newMockProxy(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "storage"`).WillReturnError(errConnReset)
	_, err := proxy.PointLookup(ctx, key1, blockHash(2))
	require.True(t, IsKind(err, KindQueryFailed))

	mock.ExpectQuery(`SELECT \* FROM "storage"`).WillReturnError(errConnReset)
	_, err = proxy.LookupAt(ctx, [][]byte{key1, key2}, nil)
	require.True(t, IsKind(err, KindQueryFailed))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRangeLookupFailures(t *testing.T) {
	proxy, mock := newMockProxy(t)
	ctx := context.Background()
	keys := [][]byte{key1}

	// start hash resolution fails
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).WillReturnError(errConnReset)
	_, err := proxy.RangeLookup(ctx, keys, blockHash(2), blockHash(4))
	require.True(t, IsKind(err, KindResolutionFailed))

	// end hash resolution fails
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"hash", "block_num"}).AddRow(blockHash(2), int64(2)))
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).WillReturnError(errConnReset)
	_, err = proxy.RangeLookup(ctx, keys, blockHash(2), blockHash(4))
	require.True(t, IsKind(err, KindResolutionFailed))

	// storage query fails after both bounds resolved
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"hash", "block_num"}).AddRow(blockHash(2), int64(2)))
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"hash", "block_num"}).AddRow(blockHash(4), int64(4)))
	mock.ExpectQuery(`SELECT \* FROM "storage" WHERE .*"block_num" >= \$\d+ AND "block_num" <= \$\d+`).
		WillReturnError(errConnReset)
	_, err = proxy.RangeLookup(ctx, keys, blockHash(2), blockHash(4))
	require.True(t, IsKind(err, KindQueryFailed))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLenientAbsorbsQueryFailures(t *testing.T) {
	proxy, mock := newMockProxy(t)
	lenient := proxy.Lenient()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "storage"`).WillReturnError(errConnReset)
	entries, err := lenient.PointLookup(ctx, key1, nil)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)

	mock.ExpectQuery(`SELECT \* FROM "storage"`).WillReturnError(errConnReset)
	entries, err = lenient.LookupAt(ctx, [][]byte{key1}, blockHash(2))
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)

	// storage query fails after the bounds resolved
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"hash", "block_num"}).AddRow(blockHash(2), int64(2)))
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"hash", "block_num"}).AddRow(blockHash(4), int64(4)))
	mock.ExpectQuery(`SELECT \* FROM "storage"`).WillReturnError(errConnReset)
	entries, err = lenient.RangeLookup(ctx, [][]byte{key1}, blockHash(2), blockHash(4))
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLenientKeepsResolutionFailures(t *testing.T) {
	proxy, mock := newMockProxy(t)
	lenient := proxy.Lenient()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "blocks"`).WillReturnError(errConnReset)
	entries, err := lenient.RangeLookup(ctx, [][]byte{key1}, blockHash(2), nil)
	require.Nil(t, entries)
	require.True(t, IsKind(err, KindResolutionFailed))
	require.True(t, errors.Is(err, errConnReset))

	mock.ExpectQuery(`SELECT \* FROM "blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"hash", "block_num"}).AddRow(blockHash(2), int64(2)))
	mock.ExpectQuery(`SELECT \* FROM "blocks"`).WillReturnError(errConnReset)
	_, err = lenient.RangeLookup(ctx, [][]byte{key1}, blockHash(2), blockHash(4))
	require.True(t, IsKind(err, KindResolutionFailed))

	require.NoError(t, mock.ExpectationsWereMet())
}
