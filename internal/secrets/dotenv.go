package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// SetEntry writes or replaces KEY="value" in a .env file, keeping comments
// and the order of other lines.
func SetEntry(path, key, value string) error {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return fmt.Errorf("format entry: %w", err)
	}

	lines, err := readLines(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read dotenv: %w", err)
	}

	replaced := false
	for i, l := range lines {
		if entryKey(l) == key {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dotenv dir: %w", err)
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

// entryKey returns the key of a KEY=value line, or "" for comments and blanks.
func entryKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	k, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(k)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Seal encrypts value with the identity at keyPath, creating the identity on
// first use, and stores it under key in the .env file at envPath.
func Seal(envPath, keyPath, key, value string) error {
	kr, err := EnsureKeyring(keyPath)
	if err != nil {
		return err
	}
	sealed, err := kr.Seal(value)
	if err != nil {
		return err
	}
	return SetEntry(envPath, key, sealed)
}

// Reveal replaces every sealed environment value with its plaintext and
// returns the names it opened.
func (k *Keyring) Reveal() ([]string, error) {
	var names []string
	for _, kv := range os.Environ() {
		name, v, ok := strings.Cut(kv, "=")
		if !ok || !IsSealed(v) {
			continue
		}
		plain, err := k.Open(v)
		if err != nil {
			return names, fmt.Errorf("reveal %s: %w", name, err)
		}
		if err := os.Setenv(name, plain); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// RevealEnv opens sealed environment values when an identity exists at
// keyPath. Without one it does nothing.
func RevealEnv(keyPath string) ([]string, error) {
	if _, err := os.Stat(keyPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	kr, err := LoadKeyring(keyPath)
	if err != nil {
		return nil, err
	}
	return kr.Reveal()
}
