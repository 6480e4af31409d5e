package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	// Bypass AutoMigrate for the unit test.
	return &Store{db: gormDB}, mock
}

func TestSaveAnalysis(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `analyses`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	verdict := poolsentinel.RiskVerdict{TokenMint: "MintA", Score: 75, Level: poolsentinel.RiskMedium}
	err := store.SaveAnalysis(context.Background(), verdict, `{"liquidity":1000}`)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAlert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `alerts`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.SaveAlert(context.Background(), "chat1", "MintA", "new_pool", true, "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWasAlertSent(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery("SELECT count").WillReturnRows(rows)

	sent, err := store.WasAlertSent(context.Background(), "MintA", "chat1", "new_pool", 3600)
	require.NoError(t, err)
	require.True(t, sent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTokenOutcomeInitial(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `token_outcomes`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.SaveTokenOutcomeInitial(context.Background(), "MintA", 0.001, 5000)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRecordTableName(t *testing.T) {
	require.Equal(t, "analyses", AnalysisRecord{}.TableName())
	require.Equal(t, "alerts", AlertRecord{}.TableName())
	require.Equal(t, "pool_discoveries", PoolDiscoveryRecord{}.TableName())
	require.Equal(t, "token_outcomes", TokenOutcomeRecord{}.TableName())
	require.Equal(t, "ml_samples", MLSampleRecord{}.TableName())
}
