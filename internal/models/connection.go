package models

// Driver names accepted in configuration
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ConnectionConfig represents a database connection configuration
type ConnectionConfig struct {
	Driver     string
	Host       string
	Port       int
	Database   string
	User       string
	Password   string
	SSLMode    string
	SearchPath []string
	// Filename is the SQLite database file (":memory:" for a private in-memory database)
	Filename string
	MaxConns int32
	MinConns int32
}

// NormalizeDriver maps driver aliases to DriverPostgres or DriverSQLite.
// It returns "" for unsupported drivers.
func NormalizeDriver(driver string) string {
	switch driver {
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	case "sqlite3", "sqlite", "better-sqlite3":
		return DriverSQLite
	default:
		return ""
	}
}
