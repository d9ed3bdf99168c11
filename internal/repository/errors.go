package repository

import (
	"github.com/Olprog59/go-noticegen/internal/repository/db"
	"github.com/Olprog59/go-noticegen/internal/repository/sqlite"
)

// Re-export common errors for convenience
var (
	ErrNoRecord = db.ErrNoRecord
	ErrDup      = db.ErrDuplicate

	// SQLite-specific errors from sqlite package
	ErrBusy   = sqlite.ErrBusy
	ErrLocked = sqlite.ErrLocked
)
