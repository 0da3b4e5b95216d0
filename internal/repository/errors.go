package repository

import (
	"errors"

	"gorm.io/gorm"

	"daily-streak/internal/apperr"
)

// classify maps gorm errors onto apperr kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.NotFound, op, err)
	}
	return apperr.Wrap(apperr.Persistence, op, err)
}
