package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPage     = errors.New("unknown page")
	ErrUnknownDownload = errors.New("unknown download")
	ErrUnknownImage    = errors.New("unknown image")
	ErrImageNotFound   = errors.New("image file not found")
)

// PageError is returned when a page's data could not be loaded. The page
// that comes with it shows the error in place of the content.
type PageError struct {
	Slug string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.Slug, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
