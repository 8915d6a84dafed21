package identity

import (
	"context"
	"encoding/hex"
	"os"
	"runtime"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystoreImportAndResolve(t *testing.T) {
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := "0x" + hex.EncodeToString(crypto.FromECDSA(key))

	id, err := ks.Import("issuer", keyHex)
	require.NoError(t, err)
	wantID := Identity(crypto.PubkeyToAddress(key.PublicKey).Hex())
	assert.True(t, id.Equal(wantID))

	signer := ks.Signer("issuer")
	gotID, err := signer.Identity()
	require.NoError(t, err)
	assert.True(t, gotID.Equal(wantID))

	gotKey, err := signer.PrivateKey()
	require.NoError(t, err)
	assert.Equal(t, crypto.FromECDSA(key), crypto.FromECDSA(gotKey))

	names, err := ks.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"issuer"}, names)
}

func TestKeystoreFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = ks.Import("issuer", hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	info, err := os.Stat(ks.keyFilePath("issuer"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestKeySignerMissingKey(t *testing.T) {
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	_, err = ks.Signer("absent").Identity()
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestCheckKeyName(t *testing.T) {
	assert.NoError(t, CheckKeyName("issuer-01_a"))
	assert.Error(t, CheckKeyName(""))
	assert.Error(t, CheckKeyName("bad/name"))
	assert.Error(t, CheckKeyName("spaced name"))
}

func TestParseKeyHexRejectsJunk(t *testing.T) {
	_, err := ParseKeyHex("not hex at all")
	assert.Error(t, err)
	_, err = ParseKeyHex("")
	assert.Error(t, err)
}

func TestAllowlist(t *testing.T) {
	a := Allowlist{"0xABCDEF0000000000000000000000000000000001"}
	ok, err := a.IsPermitted(context.Background(), "0xabcdef0000000000000000000000000000000001")
	require.NoError(t, err)
	assert.True(t, ok, "allowlist comparison should ignore hex case")

	ok, err = a.IsPermitted(context.Background(), "0x0000000000000000000000000000000000000002")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaticSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	s := NewStaticSigner(key)
	id, err := s.Identity()
	require.NoError(t, err)
	assert.True(t, id.Equal(Identity(crypto.PubkeyToAddress(key.PublicKey).Hex())))

	var empty *StaticSigner
	_, err = empty.Identity()
	assert.ErrorIs(t, err, ErrNoIdentity)
}
