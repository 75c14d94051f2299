package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	pgstore "github.com/dwarvesf/xray-txhistory/internal/store/postgres"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

// runMigrations applies every pending migration, or rolls back steps of them
// when steps is negative.
func runMigrations(db *gorm.DB, dir string, steps int, logger *logger.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database connection")
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create postgres driver")
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", dir), "postgres", driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migrate instance")
	}

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration failed")
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return errors.Wrap(verr, "read schema version")
	}
	logger.Info("Migrations completed successfully", map[string]string{
		"version": strconv.FormatUint(uint64(version), 10),
		"dirty":   strconv.FormatBool(dirty),
	})
	return nil
}

func main() {
	dir := flag.String("dir", filepath.Join("migrations", "schema"), "migration files directory")
	steps := flag.Int("steps", 0, "migrations to apply, negative rolls back, 0 applies all pending")
	flag.Parse()

	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	if !pgstore.Enabled(appConfig) {
		logger.Error("[main] DB_HOST is not set, nothing to migrate")
		os.Exit(1)
	}
	db := pgstore.New(appConfig, logger)

	if err := runMigrations(db, *dir, *steps, logger); err != nil {
		logger.Error("[main][runMigrations] failed to run migrations", map[string]string{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
