package database

import (
	"testing"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range []interface{}{
		&model.User{}, &model.Category{}, &model.Form{},
		&model.Submission{}, &model.CannedResponse{}, &model.Attachment{},
		&model.AdminLoginLog{},
	} {
		assert.True(t, db.Migrator().HasTable(m))
	}

	// 重复迁移不报错
	require.NoError(t, Migrate(db))
}
