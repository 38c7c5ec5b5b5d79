package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oxhq/sqlmorph/models"
)

// dsnKind classifies a history DSN. Plain paths open a local SQLite
// file, ":memory:" stays in-process, and libsql/http(s) URLs go through
// the libsql connector (Turso and friends).
type dsnKind int

const (
	dsnMemory dsnKind = iota
	dsnFile
	dsnRemote
)

func classifyDSN(dsn string) dsnKind {
	switch {
	case dsn == ":memory:":
		return dsnMemory
	case strings.HasPrefix(dsn, "libsql:"),
		strings.HasPrefix(dsn, "http://"),
		strings.HasPrefix(dsn, "https://"):
		return dsnRemote
	default:
		return dsnFile
	}
}

// Connect opens the history database and runs migrations.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	dialector, err := openDialector(dsn)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return gdb, nil
}

// openDialector builds the gorm dialector for the DSN class.
func openDialector(dsn string) (gorm.Dialector, error) {
	switch classifyDSN(dsn) {
	case dsnRemote:
		var opts []libsql.Option
		if token := os.Getenv("SQLMORPH_LIBSQL_AUTH_TOKEN"); token != "" {
			opts = append(opts, libsql.WithAuthToken(token))
		}
		connector, err := libsql.NewConnector(dsn, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create libsql connector: %w", err)
		}
		return sqlite.New(sqlite.Config{
			DriverName: "libsql",
			Conn:       sql.OpenDB(connector),
			DSN:        dsn,
		}), nil

	case dsnFile:
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return sqlite.Open(dsn), nil

	default: // dsnMemory
		return sqlite.Open(dsn), nil
	}
}

// Migrate creates or updates the history schema.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.Run{},
		&models.Analysis{},
		&models.Rewrite{},
	)
}
