package keys

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedKeysRoundTripThroughDirSource(t *testing.T) {
	dir := t.TempDir()
	createdAt := time.Unix(1700000000, 0).UTC()

	key, err := GenerateRSA("gen-1", createdAt)
	require.NoError(t, err)
	assert.Equal(t, "RS256", key.Algorithm)
	assert.True(t, key.CanSign())

	privPath, _, err := WriteKeyFiles(dir, key)
	require.NoError(t, err)

	info, err := os.Stat(privPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	store := NewStore(DirSource{Dir: dir}, time.Hour)
	require.NoError(t, store.Load(context.Background()))

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "gen-1", current.ID)
	assert.True(t, current.CreatedAt.Equal(createdAt))
}

func TestEncodedPEMParsesBack(t *testing.T) {
	key, err := GenerateRSA("gen-2", time.Now())
	require.NoError(t, err)

	privPEM, err := EncodePrivateKeyPEM(key.Private)
	require.NoError(t, err)
	pubPEM, err := EncodePublicKeyPEM(key.Public)
	require.NoError(t, err)

	priv, err := ParsePrivateKeyPEM(privPEM)
	require.NoError(t, err)
	pub, err := ParsePublicKeyPEM(pubPEM)
	require.NoError(t, err)

	_, err = NewSigningKey("gen-2", time.Now(), priv, pub)
	assert.NoError(t, err)
}
