package mysql

import (
	"errors"

	"gorm.io/gorm"
)

// translate maps gorm's not-found and duplicate-key errors onto the domain
// sentinels so callers never import gorm to classify errors.
func translate(err, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case duplicate != nil && errors.Is(err, gorm.ErrDuplicatedKey):
		return duplicate
	default:
		return err
	}
}
