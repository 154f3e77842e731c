// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package sqlstore

// Blank-imported for database/sql driver registration. Callers open a
// *sql.DB themselves (via sql.Open with one of these driver names) and pass
// it to New; sqlstore never opens a connection on the caller's behalf.
import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Dialect names recognized by DialectFor.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLServer = "sqlserver"
)
