package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureKeyring_CreatesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", ".age-key")

	kr, err := EnsureKeyring(path)
	if err != nil {
		t.Fatalf("EnsureKeyring: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# recipient: "+kr.Recipient()) {
		t.Errorf("identity file does not name its recipient:\n%s", data)
	}
}

func TestEnsureKeyring_ReusesExistingIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".age-key")

	first, err := EnsureKeyring(path)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	sealed, err := first.Seal("csk-abc")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	second, err := EnsureKeyring(path)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Recipient() != first.Recipient() {
		t.Fatal("identity was regenerated")
	}
	if got, err := second.Open(sealed); err != nil || got != "csk-abc" {
		t.Fatalf("Open = %q, %v", got, err)
	}
}

func TestLoadKeyring_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadKeyring(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}

	empty := filepath.Join(dir, "empty")
	os.WriteFile(empty, []byte("# only a comment\n"), 0o600)
	if _, err := LoadKeyring(empty); err == nil {
		t.Error("expected error for a file without identity")
	}

	bad := filepath.Join(dir, "bad")
	os.WriteFile(bad, []byte("AGE-SECRET-KEY-NOTVALID\n"), 0o600)
	if _, err := LoadKeyring(bad); err == nil {
		t.Error("expected error for a malformed identity")
	}
}

func TestKeyring_SealOpen(t *testing.T) {
	kr, err := EnsureKeyring(filepath.Join(t.TempDir(), ".age-key"))
	if err != nil {
		t.Fatalf("EnsureKeyring: %v", err)
	}

	for _, plain := range []string{"csk-live-123", "", "with spaces and \"quotes\"\nand newline"} {
		sealed, err := kr.Seal(plain)
		if err != nil {
			t.Fatalf("Seal(%q): %v", plain, err)
		}
		if !IsSealed(sealed) || strings.Contains(sealed, "\n") {
			t.Fatalf("sealed value %q is not a single ENC[age:...] line", sealed)
		}
		got, err := kr.Open(sealed)
		if err != nil || got != plain {
			t.Fatalf("Open = %q, %v; want %q", got, err, plain)
		}
	}
}

func TestKeyring_OpenWithOtherIdentity(t *testing.T) {
	dir := t.TempDir()
	a, _ := EnsureKeyring(filepath.Join(dir, "a"))
	b, _ := EnsureKeyring(filepath.Join(dir, "b"))

	sealed, err := a.Seal("secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := b.Open(sealed); err == nil {
		t.Fatal("opened a value sealed for another identity")
	}
}

func TestKeyring_OpenRejectsPlainValues(t *testing.T) {
	kr, _ := EnsureKeyring(filepath.Join(t.TempDir(), ".age-key"))

	if _, err := kr.Open("csk-plain"); !errors.Is(err, ErrNotSealed) {
		t.Errorf("plain value: got %v, want ErrNotSealed", err)
	}
	if _, err := kr.Open("ENC[age:!!!]"); err == nil || errors.Is(err, ErrNotSealed) {
		t.Errorf("bad base64: got %v", err)
	}
}

func TestIsSealed(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ENC[age:YWJj]", true},
		{"ENC[age:]", false},
		{"ENC[age:abc", false},
		{"csk-123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSealed(tt.in); got != tt.want {
			t.Errorf("IsSealed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
