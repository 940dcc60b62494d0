package postgres_test

import (
	"io/fs"
	"testing"

	"github.com/phrazzld/task-api/internal/platform/postgres"
	"github.com/phrazzld/task-api/internal/store/storetest"
	"github.com/phrazzld/task-api/internal/testdb"
	"github.com/stretchr/testify/require"
)

// newStores runs each subtest in its own rolled-back transaction.
func newStores(t *testing.T) storetest.Stores {
	db := testdb.GetTestDBWithT(t)

	tx, err := db.Begin()
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })

	return storetest.Stores{
		Users: postgres.NewPostgresUserStore(db, nil).WithTx(tx),
		Tasks: postgres.NewPostgresTaskStore(db, nil).WithTx(tx),
	}
}

func TestPostgresUserStore(t *testing.T) {
	storetest.RunUserStoreTests(t, newStores)
}

func TestPostgresTaskStore(t *testing.T) {
	storetest.RunTaskStoreTests(t, newStores)
}

func TestPostgresMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(postgres.Migrations(), ".")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
