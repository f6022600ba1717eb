//go:build integration

package fallback

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPostgres(t *testing.T) *db.DB {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	return &db.DB{DB: gormDB}
}

func TestPostgresMissingTableFallsBackThenRecovers(t *testing.T) {
	ctx := context.Background()
	database := setupPostgres(t)
	docs := NewMemoryDocuments()
	store := New[db.Announcement](db.CollectionAnnouncements, NewGormRemote[db.Announcement](database), docs, nil).
		WithSeed(db.Announcement{Title: "Welcome"})

	_, err := NewGormRemote[db.Announcement](database).List(ctx, db.CollectionAnnouncements)
	require.Error(t, err)
	assert.True(t, isMissingTable(err))

	all, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Welcome", all[0].Title)

	require.NoError(t, db.RunMigrations(database))

	created, err := store.Create(ctx, db.Announcement{Title: "Volume 3 out now", IsActive: true})
	require.NoError(t, err)
	assert.NotContains(t, created.ID, "local-")

	all, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Volume 3 out now", all[0].Title)
}
