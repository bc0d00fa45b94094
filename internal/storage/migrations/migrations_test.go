package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0].sql, "scored_tokens")

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)

	stmts, err := splitStatements(ch[0].sql)
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}

func TestSplitStatements(t *testing.T) {
	stmts, err := splitStatements("-- header\nCREATE TABLE a (x String);\n\nINSERT INTO a VALUES ('it''s');\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE a (x String)", "INSERT INTO a VALUES ('it''s')"}, stmts)

	_, err = splitStatements("INSERT INTO a VALUES ('a;b');")
	assert.ErrorIs(t, err, errSemicolonInString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/radar")
	require.NoError(t, err)
	assert.Equal(t, "radar", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
