package database

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
)

// CaseFoldFunc is the SQL function templates use to compare names without
// regard to case. SQLite's built-in lower() only folds ASCII.
const CaseFoldFunc = "casefold"

// mattnDriver is the mattn driver registered with CaseFoldFunc installed on
// every connection.
const mattnDriver = "sqlite3_tutormatch"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(CaseFoldFunc, 1, modernCaseFold); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", CaseFoldFunc, err))
	}

	sql.Register(mattnDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(CaseFoldFunc, CaseFold, true)
		},
	})
}

// CaseFold lower-cases text values using Unicode rules. NULL and
// non-text values are returned unchanged.
func CaseFold(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return strings.ToLower(string(s))
	default:
		return v
	}
}

func modernCaseFold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	return CaseFold(args[0]), nil
}

// sqlDriverName maps a configured driver to the database/sql name to open
func sqlDriverName(name string) string {
	if name == DriverMattn {
		return mattnDriver
	}
	return name
}
