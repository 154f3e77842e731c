// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package sqlstore

import (
	"fmt"
	"regexp"
)

// validTableName matches the spec's table-name constraint: alphanumeric and
// underscore only, bounded to a conservative identifier length shared by
// every supported backend.
var validTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func validateTableName(name string) error {
	if !validTableName.MatchString(name) {
		return fmt.Errorf("sqlstore: invalid table name %q", name)
	}
	return nil
}

// dialect hides the per-engine SQL differences sqlstore needs: positional
// placeholder syntax and the upsert statement, since "INSERT ... ON
// CONFLICT" is spelled differently (or absent) across engines.
type dialect struct {
	name string

	createTable func(table string) string
	upsert      func(table string) string
	selectOne   func(table string) string
	deleteOne   func(table string) string
	selectKeys  func(table string) string
	deleteColl  func(table string) string
	truncate    func(table string) string
	cullExpired func(table string) string
}

// DialectFor returns the dialect matching a database/sql driver name, as
// passed to sql.Open (e.g. "sqlite", "postgres", "mysql", "sqlserver").
func DialectFor(driverName string) (dialect, error) {
	switch driverName {
	case SQLite:
		return sqliteDialect(), nil
	case Postgres:
		return postgresDialect(), nil
	case MySQL:
		return mysqlDialect(), nil
	case SQLServer:
		return sqlServerDialect(), nil
	default:
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driverName)
	}
}

func sqliteDialect() dialect {
	return dialect{
		name: SQLite,
		createTable: func(t string) string {
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				collection TEXT NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				created_at TEXT,
				expires_at TEXT,
				PRIMARY KEY (collection, key)
			)`, t) + fmt.Sprintf(`; CREATE INDEX IF NOT EXISTS %s_expires_at ON %s (expires_at)`, t, t)
		},
		upsert: func(t string) string {
			return fmt.Sprintf(`INSERT INTO %s (collection, key, value, created_at, expires_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(collection, key) DO UPDATE SET
					value = excluded.value, created_at = excluded.created_at, expires_at = excluded.expires_at`, t)
		},
		selectOne: func(t string) string {
			return fmt.Sprintf(`SELECT value, created_at, expires_at FROM %s WHERE collection = ? AND key = ?`, t)
		},
		deleteOne: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND key = ?`, t)
		},
		selectKeys: func(t string) string {
			return fmt.Sprintf(`SELECT key FROM %s WHERE collection = ? LIMIT ?`, t)
		},
		deleteColl: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, t)
		},
		truncate:    func(t string) string { return fmt.Sprintf(`DELETE FROM %s`, t) },
		cullExpired: func(t string) string { return fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < ?`, t) },
	}
}

func postgresDialect() dialect {
	return dialect{
		name: Postgres,
		createTable: func(t string) string {
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				collection TEXT NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				created_at TEXT,
				expires_at TEXT,
				PRIMARY KEY (collection, key)
			)`, t) + fmt.Sprintf(`; CREATE INDEX IF NOT EXISTS %s_expires_at ON %s (expires_at)`, t, t)
		},
		upsert: func(t string) string {
			return fmt.Sprintf(`INSERT INTO %s (collection, key, value, created_at, expires_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (collection, key) DO UPDATE SET
					value = excluded.value, created_at = excluded.created_at, expires_at = excluded.expires_at`, t)
		},
		selectOne: func(t string) string {
			return fmt.Sprintf(`SELECT value, created_at, expires_at FROM %s WHERE collection = $1 AND key = $2`, t)
		},
		deleteOne: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = $1 AND key = $2`, t)
		},
		selectKeys: func(t string) string {
			return fmt.Sprintf(`SELECT key FROM %s WHERE collection = $1 LIMIT $2`, t)
		},
		deleteColl: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = $1`, t)
		},
		truncate:    func(t string) string { return fmt.Sprintf(`DELETE FROM %s`, t) },
		cullExpired: func(t string) string { return fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < $1`, t) },
	}
}

func mysqlDialect() dialect {
	return dialect{
		name: MySQL,
		createTable: func(t string) string {
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				collection VARCHAR(255) NOT NULL,
				key VARCHAR(255) NOT NULL,
				value LONGTEXT NOT NULL,
				created_at VARCHAR(64),
				expires_at VARCHAR(64),
				PRIMARY KEY (collection, key),
				INDEX (expires_at)
			)`, t)
		},
		upsert: func(t string) string {
			return fmt.Sprintf(`INSERT INTO %s (collection, key, value, created_at, expires_at)
				VALUES (?, ?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE value = VALUES(value), created_at = VALUES(created_at), expires_at = VALUES(expires_at)`, t)
		},
		selectOne: func(t string) string {
			return fmt.Sprintf(`SELECT value, created_at, expires_at FROM %s WHERE collection = ? AND key = ?`, t)
		},
		deleteOne: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND key = ?`, t)
		},
		selectKeys: func(t string) string {
			return fmt.Sprintf(`SELECT key FROM %s WHERE collection = ? LIMIT ?`, t)
		},
		deleteColl: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, t)
		},
		truncate:    func(t string) string { return fmt.Sprintf(`DELETE FROM %s`, t) },
		cullExpired: func(t string) string { return fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < ?`, t) },
	}
}

func sqlServerDialect() dialect {
	return dialect{
		name: SQLServer,
		createTable: func(t string) string {
			return fmt.Sprintf(`IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='%s' AND xtype='U')
				CREATE TABLE %s (
					collection NVARCHAR(450) NOT NULL,
					[key] NVARCHAR(450) NOT NULL,
					value NVARCHAR(MAX) NOT NULL,
					created_at NVARCHAR(64),
					expires_at NVARCHAR(64),
					PRIMARY KEY (collection, [key])
				)`, t, t)
		},
		upsert: func(t string) string {
			return fmt.Sprintf(`MERGE %s AS target
				USING (SELECT @p1 AS collection, @p2 AS [key], @p3 AS value, @p4 AS created_at, @p5 AS expires_at) AS src
				ON target.collection = src.collection AND target.[key] = src.[key]
				WHEN MATCHED THEN UPDATE SET value = src.value, created_at = src.created_at, expires_at = src.expires_at
				WHEN NOT MATCHED THEN INSERT (collection, [key], value, created_at, expires_at)
					VALUES (src.collection, src.[key], src.value, src.created_at, src.expires_at);`, t)
		},
		selectOne: func(t string) string {
			return fmt.Sprintf(`SELECT value, created_at, expires_at FROM %s WHERE collection = @p1 AND [key] = @p2`, t)
		},
		deleteOne: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = @p1 AND [key] = @p2`, t)
		},
		selectKeys: func(t string) string {
			return fmt.Sprintf(`SELECT TOP (@p2) [key] FROM %s WHERE collection = @p1`, t)
		},
		deleteColl: func(t string) string {
			return fmt.Sprintf(`DELETE FROM %s WHERE collection = @p1`, t)
		},
		truncate:    func(t string) string { return fmt.Sprintf(`DELETE FROM %s`, t) },
		cullExpired: func(t string) string { return fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < @p1`, t) },
	}
}
