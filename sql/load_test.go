package sql

import (
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		// Verify pgvector extension is created
		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		err = Init(db.Instance)
		assert.NoError(t, err)
	})
}

func TestLoadTableSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	tests := []struct {
		name      string
		load      func(db *sql.DB, force bool) error
		functions []string
	}{
		{"cities", LoadCitiesSql, CitiesFunctions},
		{"distances", LoadDistancesSql, DistancesFunctions},
		{"passages", LoadPassagesSql, PassagesFunctions},
	}

	for _, test := range tests {
		t.Run("Load "+test.name+" SQL functions", func(t *testing.T) {
			err := test.load(db.Instance, false)
			assert.NoError(t, err)

			for _, funcName := range test.functions {
				var exists bool
				err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
				require.NoError(t, err)
				assert.True(t, exists, "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+test.name+" SQL is idempotent without force", func(t *testing.T) {
			err := test.load(db.Instance, false)
			assert.NoError(t, err)
		})

		t.Run("Load "+test.name+" SQL with force reloads", func(t *testing.T) {
			err := test.load(db.Instance, true)
			assert.NoError(t, err)

			exists, err := checkFunctions(db.Instance, test.functions)
			require.NoError(t, err)
			assert.True(t, exists, "Functions should exist after force reload")
		})
	}
}

func TestLoadAllSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load all SQL functions", func(t *testing.T) {
		err := LoadAllSql(db.Instance, false)
		assert.NoError(t, err)

		for _, functions := range [][]string{CitiesFunctions, DistancesFunctions, PassagesFunctions} {
			exists, err := checkFunctions(db.Instance, functions)
			require.NoError(t, err)
			assert.True(t, exists)
		}
	})

	t.Run("Load all SQL is idempotent without force", func(t *testing.T) {
		err := LoadAllSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load all SQL with force reloads", func(t *testing.T) {
		err := LoadAllSql(db.Instance, true)
		assert.NoError(t, err)
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Check functions returns false when functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for nonexistent function")
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		err := LoadCitiesSql(db.Instance, false)
		require.NoError(t, err)

		exists, err := checkFunctions(db.Instance, CitiesFunctions)
		assert.NoError(t, err)
		assert.True(t, exists, "Should return true when all functions exist")
	})

	t.Run("Check functions returns false when some functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"init_cities", "nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false when some functions don't exist")
	})

	t.Run("Check functions with empty list", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{})
		assert.NoError(t, err)
		// With an empty list the loop doesn't execute and allExist remains false
		assert.False(t, exists, "Should return false for empty function list")
	})
}

func TestEmbeddedSQL(t *testing.T) {
	assert.Contains(t, initSQL, "CREATE EXTENSION", "Should contain CREATE EXTENSION")

	embedded := map[string]string{
		"cities":    citiesSQL,
		"distances": distancesSQL,
		"passages":  passagesSQL,
	}
	for name, script := range embedded {
		assert.Contains(t, script, "CREATE OR REPLACE FUNCTION init_"+name, "%s SQL should be embedded", name)
	}
}
