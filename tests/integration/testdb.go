// Package integration runs the RentNest API and repositories against a real
// PostgreSQL started with testcontainers. The suite is skipped with -short.
package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rentnest/backend/internal/infrastructure/migration"
	"github.com/rentnest/backend/internal/infrastructure/persistence"
	"github.com/rentnest/backend/migrations"
)

const postgresImage = "postgres:16-alpine"

// shared is the package-wide container used by repository tests
var shared struct {
	mu        sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// TestDB is a migrated database plus the handle tests query through
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB starts a private container for one test and terminates it on cleanup
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	requireDocker(t)

	container, dsn := startPostgres(t, "rentnest_test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})
	return openMigrated(t, dsn)
}

// NewSharedTestDB connects to the package container, starting it on first use.
// Callers own their rows: call CleanTables before seeding.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	requireDocker(t)

	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.container == nil {
		shared.container, shared.dsn = startPostgres(t, "rentnest_shared_test")
	}
	return openMigrated(t, shared.dsn)
}

// CleanupSharedContainer stops the package container; TestMain calls it
func CleanupSharedContainer() {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = shared.container.Terminate(ctx)
	shared.container, shared.dsn = nil, ""
}

// CleanTables empties every table except the migration bookkeeping
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	var tables []string
	require.NoError(tdb.t, tdb.DB.Raw(
		`SELECT quote_ident(tablename) FROM pg_tables
		 WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`,
	).Scan(&tables).Error)
	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE "+table+" CASCADE").Error)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test needs docker; skipped in -short mode")
	}
}

func startPostgres(t *testing.T, database string) (*tcpostgres.PostgresContainer, string) {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase(database),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("rentnest"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return container, dsn
}

// openMigrated connects with the server's gorm settings and applies the
// embedded migrations. Re-running them on the shared container is a no-op.
func openMigrated(t *testing.T, dsn string) *TestDB {
	t.Helper()
	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), persistence.GormConfig(gormlogger.Default.LogMode(level)))
	require.NoError(t, err, "connect to postgres")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "build migrator")
	require.NoError(t, m.Up(), "apply migrations")

	return &TestDB{DB: db, t: t}
}
