package crud

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"tweetapi/errs"
)

// first is a helper for getting the first database record that matches a given query.
// It translates gorm.ErrRecordNotFound into an ENOTFOUND error carrying notFoundMsg.
func first(ctx context.Context, db *gorm.DB, dst interface{}, notFoundMsg string) error {
	err := db.WithContext(ctx).First(dst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, notFoundMsg)
		}
		return err
	}
	return nil
}

// isDuplicate reports whether err is the violation of a unique constraint.
// Drivers that don't translate errors are matched by their message.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
