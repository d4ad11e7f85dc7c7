// Package dbconn owns the two connection pools linkmind's Store Gateway and
// Durable Task Runtime sit on top of, following the teacher's db package:
// one small file per backend, a package-level handle, Connect/Close pairs.
package dbconn

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres opens and pings a Postgres connection pool sized the way the
// teacher's db.Connect does.
func OpenPostgres(connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
