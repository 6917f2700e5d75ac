package driver

import (
	"embed"
	"path"

	"school-directory/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations
var migrations embed.FS

// Migrate brings the schema of the configured database up to date.
// It opens its own connection so the gateway pool is left untouched.
func Migrate(cfg *config.Config) error {
	src, err := iofs.New(migrations, path.Join("migrations", cfg.DB.Driver))
	if err != nil {
		return errors.Wrapf(err, "load %s migrations", cfg.DB.Driver)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrationURL())
	if err != nil {
		return errors.Wrap(err, "init migrations")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return errors.Wrap(err, "read schema version")
	}
	log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("Database schema is up to date")
	return nil
}
