package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// MapGormError converts GORM errors to the package's sentinel errors.
// Traverses the error chain; anything unrecognized is returned unchanged.
func MapGormError(err error) error {
	if err == nil {
		return nil
	}
	for current := err; current != nil; current = errors.Unwrap(current) {
		switch {
		case errors.Is(current, gorm.ErrDuplicatedKey):
			return ErrAlreadyExists
		case errors.Is(current, gorm.ErrRecordNotFound):
			return ErrNotFound
		}
	}
	return err
}

// WrapError runs a GORM operation and maps its error.
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(rec).Error
//	})
func WrapError(op func() error) error {
	return MapGormError(op())
}
