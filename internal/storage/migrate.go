package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies all pending migrations found in dir to databaseURL.
func Migrate(databaseURL, dir string) error {
	source := dir
	if !strings.Contains(source, "://") {
		source = "file://" + source
	}

	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("[Store] Failed to close migrator", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[Store] Schema up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("[Store] Migrations applied", "version", version, "dirty", dirty)
	return nil
}
