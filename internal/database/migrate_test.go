package database

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	in := `-- comment
CREATE TABLE a (
    id INT
);

-- another
ALTER TABLE a ADD COLUMN b INT;
SELECT 1`
	got := SplitStatements(in)
	require.Len(t, got, 3)
	assert.True(t, strings.HasPrefix(got[0], "CREATE TABLE a ("))
	assert.False(t, strings.HasSuffix(got[0], ";"))
	assert.Equal(t, "ALTER TABLE a ADD COLUMN b INT", got[1])
	assert.Equal(t, "SELECT 1", got[2])
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	content, err := fs.ReadFile(migrationFS, "migrations/001_init.sql")
	require.NoError(t, err)
	stmts := SplitStatements(string(content))
	assert.Len(t, stmts, 8)
	for _, s := range stmts {
		assert.NotContains(t, s, ";")
	}
}

func TestMySQLErrorClassifiers(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})
	deadlock := &mysql.MySQLError{Number: 1213}
	wait := &mysql.MySQLError{Number: 1205}

	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(deadlock))
	assert.True(t, IsLockConflict(deadlock))
	assert.True(t, IsLockConflict(wait))
	assert.False(t, IsLockConflict(errors.New("boom")))
	assert.False(t, IsLockConflict(nil))
}
