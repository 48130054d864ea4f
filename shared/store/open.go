package store

import (
	"fmt"
	"strings"

	"gorm.io/driver/clickhouse"
	gormmysql "gorm.io/driver/mysql"
	gormpg "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	gormsqlserver "gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dracory/flatbridge/shared/constants"
)

// NormalizeDriver maps driver aliases onto the canonical dialect names.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "clickhouse", "ch":
		return constants.DriverClickHouse
	case "postgres", "pg", "postgresql":
		return constants.DriverPostgres
	case "mysql", "mariadb":
		return constants.DriverMySQL
	case "sqlserver", "mssql":
		return constants.DriverSQLServer
	case "sqlite", "sqlite3":
		return constants.DriverSQLite
	default:
		return driver
	}
}

// OpenGORM opens a GORM DB for the given driver and DSN with logging silenced.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch NormalizeDriver(driver) {
	case constants.DriverClickHouse:
		return gorm.Open(clickhouse.Open(dsn), cfg)
	case constants.DriverPostgres:
		return gorm.Open(gormpg.Open(dsn), cfg)
	case constants.DriverMySQL:
		return gorm.Open(gormmysql.Open(dsn), cfg)
	case constants.DriverSQLite:
		return gorm.Open(gormsqlite.Open(dsn), cfg)
	case constants.DriverSQLServer:
		return gorm.Open(gormsqlserver.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// Open opens driver/dsn and wraps it in a Store.
func Open(driver, dsn string) (*Store, error) {
	db, err := OpenGORM(driver, dsn)
	if err != nil {
		return nil, err
	}
	return New(db, driver), nil
}
