package store

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

// driverName is mattn's SQLite driver with the store's SQL functions
// registered on every connection.
const driverName = "sqlite3_lexdesk"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", foldCase, true)
		},
	})
}

// foldCase applies full Unicode case folding, so "É" matches "é" and
// "STRASSE" matches "Straße". SQLite's own LIKE folds ASCII only.
func foldCase(s string) string {
	return cases.Fold().String(s)
}
