package service

import (
	"sync"
	"time"
)

// lockEntry tracks a session-specific mutex and its last access time for cleanup.
type lockEntry struct {
	mu       *sync.Mutex
	lastUsed time.Time
}
