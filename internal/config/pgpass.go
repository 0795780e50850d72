package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// pgPassEntry is a line of a password file
type pgPassEntry struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// pgPassPath returns PGPASSFILE, or ~/.pgpass
func pgPassPath() (string, error) {
	if path := os.Getenv("PGPASSFILE"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pgpass"), nil
}

// readPgPass parses a password file. A missing file has no entries.
func readPgPass(path string) ([]pgPassEntry, error) {
	// Check file permissions on non-Windows systems
	if runtime.GOOS != "windows" {
		fileInfo, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		if perm := fileInfo.Mode().Perm(); perm&0o077 != 0 {
			return nil, fmt.Errorf("%s has insecure permissions %v, must be 0600", path, perm)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var entries []pgPassEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if entry, ok := parsePgPassLine(line); ok {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

// parsePgPassLine splits hostname:port:database:username:password, honouring
// the \: and \\ escapes
func parsePgPassLine(line string) (pgPassEntry, bool) {
	parts := make([]string, 0, 5)
	var current strings.Builder
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			current.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == ':':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	parts = append(parts, current.String())

	if len(parts) != 5 {
		return pgPassEntry{}, false
	}
	return pgPassEntry{
		Host:     parts[0],
		Port:     parts[1],
		Database: parts[2],
		User:     parts[3],
		Password: parts[4],
	}, true
}

// lookupPgPass returns the password of the first entry matching the
// connection, "" when none does
func lookupPgPass(entries []pgPassEntry, host string, port int, database, user string) string {
	portStr := strconv.Itoa(port)
	for _, e := range entries {
		if matches(e.Host, host) && matches(e.Port, portStr) &&
			matches(e.Database, database) && matches(e.User, user) {
			return e.Password
		}
	}
	return ""
}

// matches checks if pattern matches value (* is wildcard)
func matches(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
