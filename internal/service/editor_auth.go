package service

import (
	"crypto/subtle"
	"errors"

	"github.com/Olprog59/go-noticegen/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when editor credentials do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// EditorAuth checks the shared editor credentials / Vérifie les identifiants partagés de l'éditeur
type EditorAuth struct {
	user string
	hash []byte
}

// NewEditorAuth creates the editor gate, nil when disabled / Crée la protection éditeur, nil si désactivée
func NewEditorAuth(conf *config.Config) (*EditorAuth, error) {
	if !conf.Security.EditorAuthEnabled() {
		return nil, nil
	}
	if _, err := bcrypt.Cost([]byte(conf.Security.EditorPasswordHash)); err != nil {
		return nil, errors.New("security.editor_password_hash is not a bcrypt hash")
	}
	return &EditorAuth{
		user: conf.Security.EditorUser,
		hash: []byte(conf.Security.EditorPasswordHash),
	}, nil
}

// Verify compares user and password / Compare l'utilisateur et le mot de passe
func (a *EditorAuth) Verify(user, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	// Always run bcrypt so timing does not reveal a wrong user name
	pwErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !userOK || pwErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword hashes an editor password for the config file / Hache un mot de passe éditeur
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	if len(password) > 72 {
		return "", errors.New("password longer than 72 bytes")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
