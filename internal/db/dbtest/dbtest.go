// Package dbtest opens a migrated Postgres database for repository integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"libmanage/backend/internal/db"
	"libmanage/backend/internal/db/migrate"
)

// EnvDSN names the variable holding the integration test DSN.
const EnvDSN = "TEST_DATABASE_URL"

// Open skips the test unless TEST_DATABASE_URL is set, migrates the schema up and
// truncates the tables named in truncate. The connection is closed on cleanup.
func Open(t *testing.T, truncate ...string) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set; skipping Postgres integration test", EnvDSN)
	}
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	conn, err := db.Open(context.Background(), dsn, db.Pool{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	for _, table := range truncate {
		if _, err := conn.Exec("TRUNCATE " + table + " CASCADE"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return conn
}
