package users

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a migrated database in TEST_DB_DSN.
func setupRepo(t *testing.T) (*Repo, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewRepo(pool), pool
}

func TestEnsureUserAndAssign(t *testing.T) {
	repo, pool := setupRepo(t)
	ctx := context.Background()
	suffix := time.Now().UnixNano()
	uid := fmt.Sprintf("uid-%d", suffix)
	projectID := fmt.Sprintf("p-%d", suffix)

	_, err := pool.Exec(ctx, `INSERT INTO projects (project_id, name) VALUES ($1, 'x')`, projectID)
	require.NoError(t, err)

	m, err := repo.EnsureUser(ctx, UpsertUser{FirebaseUID: uid, Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, Membership{Role: "user"}, m)

	require.NoError(t, repo.AssignProject(ctx, uid, projectID, "admin"))

	m, err = repo.EnsureUser(ctx, UpsertUser{FirebaseUID: uid})
	require.NoError(t, err)
	assert.Equal(t, Membership{Role: "admin", ProjectID: projectID}, m)

	assert.Error(t, repo.AssignProject(ctx, "missing-"+uid, projectID, "user"))
	_, err = repo.EnsureUser(ctx, UpsertUser{})
	assert.Error(t, err)
}
