package db

import (
	"fmt"
	"log"
	"loketkita/src/config"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// GetDb returns the shared handle, connecting with the loaded config on
// first use.
func GetDb() *gorm.DB {
	if db != nil {
		return db
	}
	_db, err := Connect(config.Load().Database)
	if err != nil {
		log.Printf("Error connecting to database: %s\n", err.Error())
		panic(err)
	}
	db = _db
	return _db
}

func NewDB(newdb *gorm.DB) {
	db = newdb
}

// Connect opens postgres with the given settings.
func Connect(conf config.Database) (*gorm.DB, error) {
	return Open(postgres.Open(conf.DSN()), conf)
}

// Open opens dialector and applies the pool limits and log level of conf.
func Open(dialector gorm.Dialector, conf config.Database) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(LogLevel(conf.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if conf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	}
	if conf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	}
	if conf.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(conf.ConnMaxLifetime)
	}
	return gdb, nil
}

// LogLevel maps a config name to a gorm log level. Unknown names fall back to
// warn.
func LogLevel(name string) logger.LogLevel {
	switch strings.ToLower(name) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
