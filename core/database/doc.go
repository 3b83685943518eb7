// Package database handles catalog database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration. SQLite is supported as an
// alternative driver, mainly for local development and tests.
//
// # Connect
//
// The Connect function establishes a connection to the database with sane pool
// settings and verifies it with a ping. Error translation is enabled so that
// duplicate-key violations surface as gorm.ErrDuplicatedKey regardless of driver.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
