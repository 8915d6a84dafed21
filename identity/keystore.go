package identity

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Keystore is a simple local-first store for issuance signing keys.
//
// Features:
// - Supports secp256k1 keys only (the ledger's signature scheme)
// - Stores one hex-encoded key per named file, mode 0600
// - No external dependencies beyond the key parser
//
// This is designed to be straightforward and explicit. It is an optional
// Signer backend; services that keep keys elsewhere implement Signer
// directly.
type Keystore struct {
	Directory string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".docanchor", "keys"), nil
}

func OpenKeystore(directory string) (*Keystore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &Keystore{Directory: directory}, nil
}

func (ks *Keystore) keyFilePath(name string) string {
	return filepath.Join(ks.Directory, name+".key")
}

func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("key name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in key name", char)
	}
	return nil
}

// ParseKeyHex parses a hex-encoded secp256k1 private key. A "0x" prefix and
// surrounding whitespace are tolerated.
func ParseKeyHex(keyHex string) (*ecdsa.PrivateKey, error) {
	keyHex = strings.TrimSpace(keyHex)
	keyHex = strings.TrimPrefix(keyHex, "0x")
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	return key, nil
}

// Import stores a key under name and returns the identity it controls.
func (ks *Keystore) Import(name, keyHex string) (Identity, error) {
	if err := CheckKeyName(name); err != nil {
		return "", err
	}
	key, err := ParseKeyHex(keyHex)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(ks.Directory, 0o700); err != nil {
		return "", err
	}
	encoded := fmt.Sprintf("%x\n", crypto.FromECDSA(key))
	if err := os.WriteFile(ks.keyFilePath(name), []byte(encoded), 0o600); err != nil {
		return "", err
	}
	return Identity(crypto.PubkeyToAddress(key.PublicKey).Hex()), nil
}

// List returns the stored key names, sorted.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".key") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".key"))
	}
	sort.Strings(names)
	return names, nil
}

// Signer binds a stored key name to the Signer interface. The key file is
// read on each use so rotation takes effect without restarting.
func (ks *Keystore) Signer(name string) *KeySigner {
	return &KeySigner{store: ks, name: name}
}

type KeySigner struct {
	store *Keystore
	name  string
}

func (s *KeySigner) PrivateKey() (*ecdsa.PrivateKey, error) {
	if s == nil || s.store == nil {
		return nil, ErrNoIdentity
	}
	b, err := os.ReadFile(s.store.keyFilePath(s.name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoIdentity
		}
		return nil, err
	}
	return ParseKeyHex(string(b))
}

func (s *KeySigner) Identity() (Identity, error) {
	key, err := s.PrivateKey()
	if err != nil {
		return "", err
	}
	return Identity(crypto.PubkeyToAddress(key.PublicKey).Hex()), nil
}
