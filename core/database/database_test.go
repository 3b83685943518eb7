package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConnect(t *testing.T) {
	t.Run("SQLiteInMemory", func(t *testing.T) {
		cfg := Config{
			Driver: "sqlite",
			Name:   ":memory:",
		}

		db, err := Connect(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, db)
	})

	t.Run("DuplicateKeyTranslation", func(t *testing.T) {
		cfg := Config{
			Driver: "sqlite",
			Name:   ":memory:",
		}
		db, err := Connect(cfg)
		assert.NoError(t, err)

		err = db.Exec("CREATE TABLE paths (path TEXT PRIMARY KEY)").Error
		assert.NoError(t, err)

		assert.NoError(t, db.Exec("INSERT INTO paths (path) VALUES ('a/1')").Error)
		err = db.Exec("INSERT INTO paths (path) VALUES ('a/1')").Error
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
	})

	t.Run("InvalidMySQLConnection", func(t *testing.T) {
		cfg := Config{
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "snapshots",
			TimeoutSeconds: 2,
		}

		// Connect should fail (timeout or refused)
		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}
