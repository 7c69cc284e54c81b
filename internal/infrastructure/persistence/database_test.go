package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/config"
)

func newPingableDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return &Database{DB: gormDB}, mock
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock := newPingableDatabase(t)
		mock.ExpectPing()

		require.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unreachable", func(t *testing.T) {
		db, mock := newPingableDatabase(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		err := db.Ping(context.Background())
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock := newPingableDatabase(t)
	mock.ExpectClose()

	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_SQL(t *testing.T) {
	db, _ := newPingableDatabase(t)

	sqlDB, err := db.SQL()
	require.NoError(t, err)
	assert.NotNil(t, sqlDB)
}

func TestApplyPoolLimits(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	applyPoolLimits(sqlDB, &config.DatabaseConfig{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 30,
		ConnMaxIdleTime: 5,
	})

	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)
}

func TestGormConfig(t *testing.T) {
	cfg := GormConfig(nil)

	assert.True(t, cfg.SkipDefaultTransaction)
	assert.True(t, cfg.PrepareStmt)
	assert.True(t, cfg.TranslateError)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"missing row", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"unique violation", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), shared.ErrAlreadyExists},
		{"passthrough", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestPageBounds(t *testing.T) {
	limit, offset := pageBounds(3, 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)

	limit, offset = pageBounds(0, 0)
	assert.Positive(t, limit)
	assert.Zero(t, offset)
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"  Sunny Loft ": "%sunny loft%",
		"50%":           `%50\%%`,
		"top_floor":     `%top\_floor%`,
		`C:\temp`:       `%c:\\temp%`,
	}
	for keyword, want := range tests {
		assert.Equal(t, want, likePattern(keyword), keyword)
	}
}
