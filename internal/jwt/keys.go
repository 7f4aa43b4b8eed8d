package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Keypair es el material de firma del proceso. Se inicializa una vez al
// arranque y se trata como read-only después.
type Keypair struct {
	KID     string
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// Load lee una seed ed25519 (base64, 32 bytes) desde un archivo.
// Un archivo ausente o corrupto es error fatal de configuración: sin clave
// no se puede firmar nada.
func Load(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jwt: read signing seed: %w", err)
	}
	seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("jwt: decode signing seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwt: signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return newKeypair(priv), nil
}

// Generate crea una seed nueva y la escribe en path (0600).
func Generate(path string) (*Keypair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(seed) + "\n"
	if err := os.WriteFile(path, []byte(enc), 0o600); err != nil {
		return nil, err
	}
	return newKeypair(ed25519.NewKeyFromSeed(seed)), nil
}

func newKeypair(priv ed25519.PrivateKey) *Keypair {
	pub := priv.Public().(ed25519.PublicKey)
	sum := sha256.Sum256(pub)
	return &Keypair{
		KID:     hex.EncodeToString(sum[:8]),
		Private: priv,
		Public:  pub,
	}
}
