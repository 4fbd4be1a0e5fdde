package crud

import (
	"fmt"

	"gorm.io/gorm"

	"tweetapi/domain"
)

// models lists every table, parents before children, so that foreign keys can be created.
func models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Tweet{},
		&domain.Like{},
		&domain.Session{},
	}
}

// AutoMigrate runs database migrations for all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// DestructiveReset drops all tables and rebuilds them.
func DestructiveReset(db *gorm.DB) error {
	ms := models()
	// Children first, otherwise their foreign keys block dropping the parents.
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
	if err := db.Migrator().DropTable(ms...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return AutoMigrate(db)
}
