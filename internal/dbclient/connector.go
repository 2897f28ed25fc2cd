// Package dbclient opens the configured snapshot backend.
package dbclient

import (
	"fmt"
	"log"
	"strings"

	"figmatext/internal/domain"
	"figmatext/internal/storage"
)

// Open returns the domain.Store for the given database connection.
// The password must be provided separately (from the secret store).
func Open(conn *domain.DatabaseConnection, password string) (domain.Store, error) {
	switch conn.Driver {
	case domain.DatabaseDriverSQLite, "":
		return openSQL(domain.DatabaseDriverSQLite, buildSQLiteDSN(conn))
	case domain.DatabaseDriverMySQL:
		return openSQL(conn.Driver, buildMySQLDSN(conn, password))
	case domain.DatabaseDriverPostgres:
		return openSQL(conn.Driver, buildPostgresDSN(conn, password))
	case domain.DatabaseDriverMongoDB:
		return newMongoStore(conn, password)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}

func openSQL(driver domain.DatabaseDriver, dsn string) (domain.Store, error) {
	db, err := storage.Open(driver, dsn)
	if err != nil {
		log.Printf("[DB] Open %s failed: %v", driver, err)
		return nil, err
	}
	log.Printf("[DB] Opened %s store", driver)
	return storage.NewStore(db), nil
}

// ParseDriver maps a DATABASE_URL scheme or driver name to a DatabaseDriver.
func ParseDriver(s string) (domain.DatabaseDriver, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3", "":
		return domain.DatabaseDriverSQLite, nil
	case "postgres", "postgresql":
		return domain.DatabaseDriverPostgres, nil
	case "mysql":
		return domain.DatabaseDriverMySQL, nil
	case "mongodb", "mongodb+srv", "mongo":
		return domain.DatabaseDriverMongoDB, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", s)
	}
}

// maskPassword hides password inside a DSN for logging.
func maskPassword(dsn, password string) string {
	if password == "" {
		return dsn
	}
	return strings.ReplaceAll(dsn, password, "***")
}
