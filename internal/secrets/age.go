// Package secrets seals .env values with an age identity kept in the data dir.
package secrets

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/threatthriver/thinkchat/internal/config"
)

// A sealed value is ENC[age:<base64 ciphertext>], short enough for one .env line.
const (
	sealedPrefix = "ENC[age:"
	sealedSuffix = "]"
)

// ErrNotSealed is returned when opening a value that was never sealed.
var ErrNotSealed = errors.New("value is not sealed")

// KeyPath returns the identity file: $THINKCHAT_PATH/.age-key.
func KeyPath() string {
	return filepath.Join(config.HomePath(), ".age-key")
}

// Keyring seals and opens values for one X25519 identity.
type Keyring struct {
	identity *age.X25519Identity
}

// LoadKeyring reads the identity file at path. Comment lines are skipped.
func LoadKeyring(path string) (*Keyring, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identity: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "AGE-SECRET-KEY-") {
			continue
		}
		id, err := age.ParseX25519Identity(line)
		if err != nil {
			return nil, fmt.Errorf("parse identity in %s: %w", path, err)
		}
		return &Keyring{identity: id}, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	return nil, fmt.Errorf("no age identity in %s", path)
}

// EnsureKeyring loads the identity at path, generating it with mode 0600 on
// first use.
func EnsureKeyring(path string) (*Keyring, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadKeyring(path)
	}

	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	content := fmt.Sprintf("# thinkchat .env sealing key; losing it makes sealed values unreadable\n# recipient: %s\n%s\n",
		id.Recipient(), id)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, fmt.Errorf("write identity: %w", err)
	}
	return &Keyring{identity: id}, nil
}

// Recipient returns the public half of the identity.
func (k *Keyring) Recipient() string {
	return k.identity.Recipient().String()
}

// Seal encrypts plaintext into a sealed value.
func (k *Keyring) Seal(plaintext string) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, k.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + sealedSuffix, nil
}

// Open decrypts a sealed value.
func (k *Keyring) Open(value string) (string, error) {
	if !IsSealed(value) {
		return "", ErrNotSealed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(strings.TrimPrefix(value, sealedPrefix), sealedSuffix))
	if err != nil {
		return "", fmt.Errorf("open: decode: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), k.identity)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plain), nil
}

// IsSealed reports whether v has the ENC[age:...] form.
func IsSealed(v string) bool {
	return len(v) > len(sealedPrefix)+len(sealedSuffix) &&
		strings.HasPrefix(v, sealedPrefix) && strings.HasSuffix(v, sealedSuffix)
}
