package storage

import (
	"database/sql"

	"figmatext/internal/domain"
)

// ReadTxOptions exposes the snapshot read options of a driver to storage_test.
func ReadTxOptions(driver domain.DatabaseDriver) *sql.TxOptions {
	return (&DB{driver: driver}).readTxOptions()
}
