//go:build integration

// Package integration runs the back-office stack against a real PostgreSQL
// started with testcontainers. Run with: go test -tags integration ./tests/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"

	"github.com/verone/backoffice/internal/infrastructure/logger"
	"github.com/verone/backoffice/internal/infrastructure/migration"
	"github.com/verone/backoffice/internal/infrastructure/persistence"
)

var (
	containerOnce sync.Once
	container     *tcpostgres.PostgresContainer
	containerDSN  string
	containerErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_ = container.Terminate(ctx)
		cancel()
	}
	os.Exit(code)
}

func startContainer() {
	ctx := context.Background()
	container, containerErr = tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("backoffice_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if containerErr != nil {
		return
	}
	containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
}

// TestDB is a migrated database shared by the package. Tables are truncated
// before each test.
type TestDB struct {
	*persistence.Database
	Logger *zap.Logger
}

// NewTestDB connects to the shared container, applying the embedded
// migrations on first use.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	containerOnce.Do(startContainer)
	require.NoError(t, containerErr, "failed to start PostgreSQL container")

	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	gl := logger.NewGormLogger(log, logger.MapGormLogLevel("warn"))
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gl = logger.NewGormLogger(log, logger.MapGormLogLevel("info"))
	}

	db, err := persistence.Open(postgres.Open(containerDSN), gl)
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.Run(sqlDB, log))

	tdb := &TestDB{Database: db, Logger: log}
	tdb.CleanTables(t)
	return tdb
}

// CleanTables truncates every application table.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(t, err)
	for _, table := range tables {
		require.NoError(t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error)
	}
}
