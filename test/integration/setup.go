//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bagdasarian/time-tracker/internal/db"
	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/bagdasarian/time-tracker/internal/repository/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testDB struct {
	DB  *sql.DB
	DSN string
}

func setupTestDB(t *testing.T) testDB {
	ctx := context.Background()

	// Создаём контейнер Postgres через testcontainers
	postgresContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:17.7"),
		tcpostgres.WithDatabase("test_db"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	applyMigrations(t, db)

	t.Cleanup(func() {
		db.Close()
		require.NoError(t, postgresContainer.Terminate(ctx))
	})

	return testDB{DB: db, DSN: connStr}
}

func applyMigrations(t *testing.T, db *sql.DB) {
	var migrationSQL []byte
	var err error

	paths := []string{
		filepath.Join("..", "..", "migrations", "000001_init.up.sql"),
		filepath.Join("migrations", "000001_init.up.sql"),
		filepath.Join("..", "migrations", "000001_init.up.sql"),
	}

	for _, path := range paths {
		migrationSQL, err = os.ReadFile(path)
		if err == nil {
			break
		}
	}
	require.NoError(t, err, "не удалось прочитать файл миграции. Проверьте, что файл migrations/000001_init.up.sql существует")

	_, err = db.Exec(string(migrationSQL))
	require.NoError(t, err, "не удалось применить миграцию")
}

// fixture - пользователь с проектом и задачей
type fixture struct {
	User    *domain.User
	Project *domain.Project
	Task    *domain.Task
}

func seed(t *testing.T, ctx context.Context, repos repository.Repositories, email string, shared bool) fixture {
	t.Helper()

	user := &domain.User{Email: email, FullName: email}
	require.NoError(t, repos.Users.Create(ctx, user))

	project := &domain.Project{Name: "Project of " + email, UserID: user.ID, IsShared: shared}
	require.NoError(t, repos.Projects.Create(ctx, project))

	task := &domain.Task{
		Title:     "Task of " + email,
		ProjectID: project.ID,
		UserID:    user.ID,
		Status:    domain.TaskStatusInProgress,
		Priority:  domain.PriorityMedium,
	}
	require.NoError(t, repos.Tasks.Create(ctx, task))

	return fixture{User: user, Project: project, Task: task}
}

func newRepositories(db *sql.DB) (repository.Repositories, repository.Transactor) {
	return postgres.NewRepositories(db), postgres.NewTransactor(db)
}

func listenerDialer(dsn string) postgres.Dialer {
	return func(ctx context.Context) (postgres.Listener, error) {
		conn, err := db.NewListenerConn(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
