// Package database opens the application database, applies embedded
// migrations and exposes named queries.
package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/pkg/logger"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 10
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = time.Hour
)

// sqlitePragmas are applied per connection through the DSN
var sqlitePragmas = []string{
	"_journal_mode=WAL",
	"_synchronous=NORMAL",
	"_foreign_keys=ON",
	"_busy_timeout=30000",
}

var DB *sqlx.DB

// Init opens the database at dbURL, runs pending migrations and loads the
// named queries. The connection is kept in DB until Close.
func Init(dbURL string) (*Queries, error) {
	db, err := Open(dbURL)
	if err != nil {
		return nil, err
	}

	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	queries, err := LoadQueries(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	DB = db
	logger.WithFields(logrus.Fields{
		"driver": db.DriverName(),
	}).Info("Database connected and migrated")

	return queries, nil
}

// Open connects to a sqlite:// or postgres:// URL.
// sqlite://file.db is relative, sqlite:///abs/file.db is absolute.
func Open(dbURL string) (*sqlx.DB, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	var driverName, dataSource string
	switch u.Scheme {
	case "sqlite", "sqlite3":
		driverName = DriverSQLite
		dataSource = sqliteDSN(u)
	case "postgres", "postgresql":
		driverName = DriverPostgres
		dataSource = dbURL
	default:
		return nil, fmt.Errorf("unsupported database scheme: %s (expected sqlite or postgres)", u.Scheme)
	}

	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func sqliteDSN(u *url.URL) string {
	path := u.Path
	if u.Host != "" {
		path = u.Host + u.Path
	}

	params := u.Query()
	for _, pragma := range sqlitePragmas {
		key, value, _ := strings.Cut(pragma, "=")
		if params.Get(key) == "" {
			params.Set(key, value)
		}
	}
	return path + "?" + params.Encode()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
