package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableDefinitions(t *testing.T) {
	t.Run("Every fleet table is defined", func(t *testing.T) {
		allStatements := strings.Join(TableDefinitions, " ")
		for _, table := range TableNames {
			assert.Contains(t, allStatements, "CREATE TABLE IF NOT EXISTS "+table,
				"Missing CREATE TABLE for %s", table)
		}
	})

	t.Run("All statements are non-empty", func(t *testing.T) {
		for i, statement := range TableDefinitions {
			assert.NotEmpty(t, strings.TrimSpace(statement), "Statement at index %d should not be empty", i)
		}
	})

	t.Run("Statements carry no foreign keys or checks", func(t *testing.T) {
		for _, statement := range TableDefinitions {
			upper := strings.ToUpper(statement)
			assert.NotContains(t, upper, "REFERENCES")
			assert.NotContains(t, upper, "CHECK (")
		}
	})

	t.Run("Due test lookups are indexed", func(t *testing.T) {
		allStatements := strings.Join(TableDefinitions, " ")
		assert.Contains(t, allStatements, "idx_domains_next_test_at")
		assert.Contains(t, allStatements, "idx_domains_pool_status")
	})
}
