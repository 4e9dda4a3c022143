package database

import (
	"fmt"
	"log"
	"time"

	"bey-cash/internal/config"
	"bey-cash/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database named by cfg, retrying while the server comes up.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.LogMode {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	var (
		db  *gorm.DB
		err error
	)
	// Wait for the DB to be ready
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after 5 attempts: %w", err)
	}

	log.Printf("✅ Connected to %s", cfg.Driver)
	return db, nil
}

// Migrate syncs the schema of every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PayrollEntry{},
		&models.DirectoryEntry{},
		&models.Invoice{},
		&models.Draft{},
		&models.Heartbeat{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Println("✅ Database Schema Synced!")
	return nil
}

// OpenMemory opens a migrated in-memory SQLite database. name is only a label:
// every call gets a fresh database, even for a name already in use.
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := Connect(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", name, uuid.NewString()),
	})
	if err != nil {
		return nil, err
	}
	// one connection: shared-cache tables lock against each other otherwise
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
