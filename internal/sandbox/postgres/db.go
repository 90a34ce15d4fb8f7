package postgres

import (
	"fmt"

	"github.com/frahmantamala/asset-management/internal"
	dashboardDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/dashboard"
	recordDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/record"
	userDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/user"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the sandbox database and brings its tables up to date.
func Open(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Source)
	case "sqlite":
		dialector = sqlite.Open(cfg.Source)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// one connection keeps :memory: databases shared and writes serialized
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&recordDatamodel.Record{}, &userDatamodel.User{}, &dashboardDatamodel.Config{}); err != nil {
		return fmt.Errorf("failed to migrate sandbox tables: %w", err)
	}
	return nil
}
