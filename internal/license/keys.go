package license

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// KeyPrefix prefijo de toda license key emitida: SG-XXXX-XXXX-XXXX.
const KeyPrefix = "SG"

// keyAlphabet excluye caracteres ambiguos (0/O, 1/I/L).
const keyAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateKey genera una license key SG-XXXX-XXXX-XXXX con entropía de
// crypto/rand.
func GenerateKey() (string, error) {
	groups := make([]string, 0, 4)
	groups = append(groups, KeyPrefix)
	for g := 0; g < 3; g++ {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, c := range b {
			sb.WriteByte(keyAlphabet[int(c)%len(keyAlphabet)])
		}
		groups = append(groups, sb.String())
	}
	return strings.Join(groups, "-"), nil
}

// ValidateKeyFormat chequea el formato SG-XXXX-XXXX-XXXX antes de ir a DB.
func ValidateKeyFormat(key string) error {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(key)), "-")
	if len(parts) != 4 || parts[0] != KeyPrefix {
		return fmt.Errorf("license key must have format %s-XXXX-XXXX-XXXX", KeyPrefix)
	}
	for _, p := range parts[1:] {
		if len(p) != 4 {
			return fmt.Errorf("license key groups must be 4 characters")
		}
		for _, c := range p {
			if !strings.ContainsRune(keyAlphabet, c) {
				return fmt.Errorf("license key contains invalid character %q", c)
			}
		}
	}
	return nil
}

// NormalizeKey uppercase + trim, para lookup consistente.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
