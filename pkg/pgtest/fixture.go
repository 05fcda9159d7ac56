// SPDX-License-Identifier: Apache-2.0

package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	pgq "github.com/pganalyze/pg_query_go/v6"
)

// ApplyFixture reads a .sql file and executes each of its statements against
// db. Statements are split with a real Postgres parser, so semicolons inside
// string literals and dollar-quoted bodies are not treated as boundaries.
// The test fails on the first statement that does not parse or execute.
func ApplyFixture(t *testing.T, db *sql.DB, path string) {
	t.Helper()
	ctx := context.Background()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", path, err)
	}

	stmts, err := splitStatements(string(content))
	if err != nil {
		t.Fatalf("Failed to parse fixture %s: %v", path, err)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to apply fixture statement %q: %v", stmt, err)
		}
	}
}

// splitStatements splits sql into individual statements using the statement
// locations reported by the Postgres parser.
func splitStatements(sql string) ([]string, error) {
	tree, err := pgq.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	stmts := make([]string, 0, len(tree.GetStmts()))
	for _, raw := range tree.GetStmts() {
		start := raw.GetStmtLocation()
		end := int32(len(sql))
		if raw.GetStmtLen() > 0 {
			end = start + raw.GetStmtLen()
		}

		stmt := strings.TrimSpace(sql[start:end])
		if stmt == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}

	return stmts, nil
}
