package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the JWT issuer of session cookies / Émetteur JWT des cookies de session
const Issuer = "noticegen"

// MinSecretLength is the minimum HMAC key size accepted / Taille minimale de la clé HMAC
const MinSecretLength = 32

// ErrWeakSecret is returned when the signing key is too short.
var ErrWeakSecret = errors.New("session secret too weak")

// Claims carries the editing session ID in the subject / Porte l'ID de session dans le sujet
type Claims struct {
	jwt.RegisteredClaims
}

// Token is a signed session token and its expiry / Token de session signé et son expiration
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issue signs a session token for id / Signe un token de session pour id
func Issue(id, secret string, ttl time.Duration) (*Token, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if id == "" {
		return nil, errors.New("empty session id")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	return &Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse validates the token and returns the session ID / Valide le token et retourne l'ID de session
func Parse(tokenStr, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// GenerateSecret returns a random hex secret suitable for Issue / Génère un secret aléatoire
func GenerateSecret() (string, error) {
	bytes := make([]byte, MinSecretLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
