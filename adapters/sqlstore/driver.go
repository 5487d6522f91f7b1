package sqlstore

import (
	"database/sql"

	// Blank-imported for their database/sql driver registration side
	// effect. modernc.org/sqlite needs no cgo and is what OpenSQLite uses
	// for an embedded, file- or memory-backed store; lib/pq is what
	// OpenPostgres uses for a networked deployment.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/signia-project/signia/pkg/errs"
)

// OpenSQLite opens a modernc.org/sqlite database at dsn (":memory:" for an
// ephemeral store) and returns a ready-to-use Store.
func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidArgument, "sqlstore.sqlite.open", "failed to open sqlite database", err)
	}
	return New(db), nil
}

// OpenPostgres opens a lib/pq database at dsn and returns a ready-to-use
// Store.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidArgument, "sqlstore.postgres.open", "failed to open postgres database", err)
	}
	return New(db), nil
}
