package repository

import (
	"database/sql"

	"github.com/Olprog59/go-noticegen/internal/ports"
)

// DatabaseFactory must be implemented by each database package / Doit être implémenté par chaque package de BD
// Adding a repository here forces every backend (sqlite, mysql, postgres) to implement it.
// Ajouter un repository ici oblige chaque backend à l'implémenter.
type DatabaseFactory interface {
	// NewSessionStore creates session store / Crée le store de sessions
	NewSessionStore(db *sql.DB) ports.SessionStore
}
