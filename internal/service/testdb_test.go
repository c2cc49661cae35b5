package service

import (
	"context"
	"path/filepath"
	"testing"

	"templatestore-backend/internal/model"
	"templatestore-backend/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// SQLite allows one writer; a single connection avoids lock errors in
	// concurrent tests.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Template{},
		&model.User{},
		&model.Order{},
		&model.License{},
	))

	return db
}

func seedTemplate(t *testing.T, db *gorm.DB) {
	t.Helper()
	repo := repository.NewTemplateRepository(db)
	require.NoError(t, repo.Seed(context.Background(), []model.Template{
		{ID: "tpl_a", Name: "Landing Page Kit", ProcessorProductID: "42", ProcessorVariantID: "4201", Price: 2900, Currency: "USD"},
	}))
}
