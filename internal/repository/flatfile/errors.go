package flatfile

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound indicates the referenced product id does not exist.
	ErrNotFound = errors.New("product not found")

	// ErrDuplicateKey indicates a product with the same id already exists.
	ErrDuplicateKey = errors.New("duplicate product id")

	// ErrInvalidProduct indicates the product cannot be stored as a well-formed line.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrPermission indicates the backing file could not be accessed.
	ErrPermission = errors.New("permission denied")

	// ErrIO indicates the backing file could not be read or written.
	ErrIO = errors.New("i/o failure")

	// ErrNotLoaded is returned by writes issued before the first successful Load.
	ErrNotLoaded = errors.New("store not loaded")
)

// accessError classifies an error opening or creating the backing file.
func accessError(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s %s: %w", ErrPermission, op, path, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}
