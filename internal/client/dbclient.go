package client

import (
	"fmt"
	"strings"
	"time"

	"templatestore-backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDatabase opens the store behind the webhook pipeline. A DSN prefixed
// with mysql:// selects MySQL; anything else is treated as a SQLite path.
// TranslateError is on so unique violations surface as
// gorm.ErrDuplicatedKey, which the order ledger's idempotency depends on.
func InitDatabase(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if dsn, ok := strings.CutPrefix(databaseURL, "mysql://"); ok {
		dialector = mysql.Open(dsn)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Template{},
		&model.User{},
		&model.Order{},
		&model.License{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
