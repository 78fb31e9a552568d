package db

import (
	"database/sql/driver"
	"strings"
	"sync"

	"modernc.org/sqlite" // also registers the "sqlite" driver
)

const sqliteLowerFunc = "unicode_lower"

var (
	sqliteFuncsOnce sync.Once
	sqliteFuncsErr  error
)

// registerSQLiteFunctions installs the application's SQL functions on every
// SQLite connection opened afterwards. It is safe to call repeatedly.
func registerSQLiteFunctions() error {
	sqliteFuncsOnce.Do(func() {
		sqliteFuncsErr = sqlite.RegisterDeterministicScalarFunction(sqliteLowerFunc, 1, unicodeLower)
	})
	return sqliteFuncsErr
}

// unicodeLower is LOWER with full Unicode case folding, matching strings.ToLower
// on the Go side of a comparison.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		// NULL and numbers pass through unchanged
		return v, nil
	}
}
