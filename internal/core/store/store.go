package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/sonit33/aarya-sub000/internal/config"
)

const (
	DriverLibsql   = "libsql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store wraps the database connection for the content catalog and questions.
type Store struct {
	DB     *sql.DB
	driver string
}

// Open initializes a store connection using the provided configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = DriverLibsql
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		db    *sql.DB
		local bool
		err   error
	)
	switch driver {
	case DriverLibsql, DriverSQLite:
		var dsn string
		dsn, local, err = buildFileDSN(cfg)
		if err != nil {
			return nil, &ConnectionError{Driver: driver, Err: err}
		}
		db, err = sql.Open(driver, dsn)
		if err != nil {
			return nil, &ConnectionError{Driver: driver, Err: fmt.Errorf("open %s store: %w", driver, err)}
		}
	case DriverPostgres:
		connCfg, err := buildPostgresConfig(cfg)
		if err != nil {
			return nil, &ConnectionError{Driver: driver, Err: err}
		}
		db = stdlib.OpenDB(*connCfg)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	// ":memory:" databases are per connection; local files have a single writer anyway.
	if local {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Driver: driver, Err: fmt.Errorf("ping %s store: %w", driver, err)}
	}

	s := &Store{DB: db, driver: driver}
	if local {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, &ConnectionError{Driver: driver, Err: fmt.Errorf("enable foreign keys: %w", err)}
		}
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Driver returns the configured store driver.
func (s *Store) Driver() string {
	if s == nil {
		return ""
	}
	return s.driver
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// buildFileDSN resolves a libsql/sqlite DSN. The second return is true for
// local (file or in-memory) databases.
func buildFileDSN(cfg config.StoreConfig) (string, bool, error) {
	cs := strings.TrimSpace(cfg.ConnectionString)
	if cs == "" {
		return "", false, errors.New("store connection string is required")
	}

	if cs == ":memory:" {
		return cs, true, nil
	}

	for _, scheme := range []string{"libsql://", "http://", "https://", "wss://", "ws://"} {
		if strings.HasPrefix(cs, scheme) {
			if cfg.Driver == DriverSQLite {
				return "", false, fmt.Errorf("sqlite driver cannot open remote url %s", scheme)
			}
			dsn, err := addAuthToken(cs, cfg.AuthToken)
			return dsn, false, err
		}
	}

	if strings.HasPrefix(cs, "file:") {
		localPath, err := extractFilePath(cs)
		if err != nil {
			return "", false, err
		}
		if err := ensureStoreDir(localPath); err != nil {
			return "", false, err
		}
		return cs, true, nil
	}

	path := databaseFilePath(cs, cfg.Name)
	if err := ensureStoreDir(path); err != nil {
		return "", false, err
	}
	return "file:" + filepath.Clean(path), true, nil
}

// databaseFilePath treats an extension-less connection string as a directory
// holding "<name>.db".
func databaseFilePath(cs, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || filepath.Ext(cs) != "" {
		return cs
	}
	return filepath.Join(cs, name+".db")
}

func buildPostgresConfig(cfg config.StoreConfig) (*pgx.ConnConfig, error) {
	cs := strings.TrimSpace(cfg.ConnectionString)
	if cs == "" {
		return nil, errors.New("store connection string is required")
	}
	connCfg, err := pgx.ParseConfig(cs)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}
	if name := strings.TrimSpace(cfg.Name); name != "" {
		connCfg.Database = name
	}
	return connCfg, nil
}

func addAuthToken(dsn string, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return dsn, nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}

	query := parsed.Query()
	if query.Get("authToken") == "" {
		query.Set("authToken", token)
		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

func extractFilePath(dsn string) (string, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store path: %w", err)
	}

	if parsed.Path != "" {
		return strings.TrimPrefix(parsed.Path, "//"), nil
	}

	return strings.TrimPrefix(parsed.Opaque, "//"), nil
}

func ensureStoreDir(path string) error {
	if strings.TrimSpace(path) == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}

	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}
