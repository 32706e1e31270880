package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DB es la conexión que usan los handlers de la API.
var DB *sqlx.DB

// InitDB abre la base indicada por dsn, aplica las migraciones y guarda la
// conexión en DB.
func InitDB(dsn string) error {
	db, err := Connect(dsn)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Connect abre y migra una base de datos. Las URLs "postgres://" y
// "postgresql://" usan lib/pq; "sqlite://ruta" o una ruta sola usan SQLite.
func Connect(dsn string) (*sqlx.DB, error) {
	driver, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// un solo escritor; además mantiene ":memory:" en una única base
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("driver", driver).Msg("database ready")
	return db, nil
}

func parseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case dsn == "":
		return "", "", fmt.Errorf("empty database url")
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", "", fmt.Errorf("creating database directory: %w", err)
		}
	}
	return "sqlite3", path + "?_foreign_keys=1", nil
}
