package config

import (
	"os"
	"strconv"
)

const defaultPostgresPort = 5432

// applyPGEnvironment fills unset Postgres settings from the standard libpq
// environment variables (PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD,
// PGSSLMODE) and, for the password, the password file. Explicit DB_*
// settings always win.
//
// pgx would apply the same variables when the pool connects. They are
// resolved here as well because Validate checks host and name before any
// connection exists, and the golang-migrate URL is built from this config.
func applyPGEnvironment(db *DBConfig) {
	if db.Host == "" {
		db.Host = os.Getenv("PGHOST")
	}

	if db.Port == 0 || db.Port == defaultPostgresPort {
		if portStr := os.Getenv("PGPORT"); portStr != "" {
			if p, err := strconv.Atoi(portStr); err == nil && p > 0 && p <= 65535 {
				db.Port = p
			}
		}
	}
	if db.Port == 0 {
		db.Port = defaultPostgresPort
	}

	if db.Name == "" {
		db.Name = os.Getenv("PGDATABASE")
	}
	if db.User == "" {
		db.User = os.Getenv("PGUSER")
	}
	if db.Pass == "" {
		db.Pass = os.Getenv("PGPASSWORD")
	}

	if db.Pass == "" {
		db.Pass = passwordFromFile(db)
	}

	if db.SSLMode == "" {
		db.SSLMode = os.Getenv("PGSSLMODE")
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
}

// passwordFromFile looks the connection up in the password file. Unreadable
// files are treated as empty.
func passwordFromFile(db *DBConfig) string {
	path, err := pgPassPath()
	if err != nil {
		return ""
	}
	entries, err := readPgPass(path)
	if err != nil {
		return ""
	}
	return lookupPgPass(entries, db.Host, db.Port, db.Name, db.User)
}
