package db

import "errors"

// Common database errors
var (
	ErrNoRecord  = errors.New("no matching record found")
	ErrDuplicate = errors.New("record already exists")
)
