package domain

import "time"

// BaseModel provides common timestamps for stored models / Fournit les horodatages communs aux modèles stockés
type BaseModel struct {
	CreatedAt time.Time // Record creation time / Heure de création de l'enregistrement
	UpdatedAt time.Time // Record last update time / Heure de dernière mise à jour
	ExpiresAt time.Time // Time after which the record may be purged / Heure après laquelle l'enregistrement peut être purgé
}

// IsExpired reports whether the record expired at the given instant / Indique si l'enregistrement est expiré
func (bm *BaseModel) IsExpired(now time.Time) bool {
	return !bm.ExpiresAt.IsZero() && !now.Before(bm.ExpiresAt)
}
