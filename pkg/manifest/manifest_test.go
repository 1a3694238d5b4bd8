package manifest_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate-core/pkg/manifest"
)

const testSecret = "unit-test-signing-secret"

// writePolicyDir creates a policy directory with the given files.
func writePolicyDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{
		"access.rego":  "package access\n\ndefault allow = false\n",
		"limits.rego":  "package limits\n",
		"routing.json": `{"rules": []}`,
	})

	m, err := manifest.Sign(dir, []string{"access.rego", "limits.rego", "routing.json"}, testSecret, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", m.SignedBy)
	assert.Len(t, m.Files, 3)
	assert.NotEmpty(t, m.Signature)

	path := filepath.Join(dir, manifest.DefaultFileName)
	require.NoError(t, manifest.Save(m, path))

	v := manifest.NewDirVerifier(dir, testSecret)
	result := v.VerifyAll()
	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.FilesVerified)
}

func TestVerifyAll_DetectsTamper(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{
		"access.rego": "package access\n",
		"other.rego":  "package other\n",
	})

	m, err := manifest.Sign(dir, []string{"access.rego", "other.rego"}, testSecret, "admin")
	require.NoError(t, err)
	require.NoError(t, manifest.Save(m, filepath.Join(dir, manifest.DefaultFileName)))

	v := manifest.NewDirVerifier(dir, testSecret)
	require.True(t, v.VerifyAll().Success)

	// Mutate one byte of one governed file.
	target := filepath.Join(dir, "access.rego")
	original, err := os.ReadFile(target)
	require.NoError(t, err)
	mutated := append([]byte{}, original...)
	mutated[0] ^= 0x01
	require.NoError(t, os.WriteFile(target, mutated, 0644))

	result := v.VerifyAll()
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, manifest.ErrTampered))

	// The failure names the offending file and nothing else sensitive.
	var merr *manifest.Error
	require.True(t, errors.As(result.Err, &merr))
	assert.Equal(t, "access.rego", merr.File)
	assert.NotContains(t, result.Err.Error(), testSecret)

	// Restoring the byte makes verification succeed again.
	require.NoError(t, os.WriteFile(target, original, 0644))
	result = v.VerifyAll()
	require.NoError(t, result.Err)
	assert.True(t, result.Success)
}

func TestVerifyAll_MissingFileIsTamper(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{"a.rego": "package a\n"})

	m, err := manifest.Sign(dir, []string{"a.rego"}, testSecret, "admin")
	require.NoError(t, err)
	require.NoError(t, manifest.Save(m, filepath.Join(dir, manifest.DefaultFileName)))
	require.NoError(t, os.Remove(filepath.Join(dir, "a.rego")))

	result := manifest.NewDirVerifier(dir, testSecret).VerifyAll()
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, manifest.ErrTampered))
}

func TestVerifyAll_ManifestSignatureIsCheckedFirst(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{"a.rego": "package a\n"})

	m, err := manifest.Sign(dir, []string{"a.rego"}, testSecret, "admin")
	require.NoError(t, err)

	t.Run("Forged files entry", func(t *testing.T) {
		// Re-pointing a manifest entry without re-signing must surface as
		// a signature failure, not a file mismatch: the manifest itself is
		// untrusted.
		forged := *m
		forged.Files = map[string]string{"a.rego": m.Files["a.rego"], "evil.rego": "0000"}
		require.NoError(t, manifest.Save(&forged, filepath.Join(dir, manifest.DefaultFileName)))

		result := manifest.NewDirVerifier(dir, testSecret).VerifyAll()
		require.False(t, result.Success)
		assert.True(t, errors.Is(result.Err, manifest.ErrSignatureInvalid))
	})

	t.Run("Wrong secret", func(t *testing.T) {
		require.NoError(t, manifest.Save(m, filepath.Join(dir, manifest.DefaultFileName)))
		result := manifest.NewDirVerifier(dir, "some-other-secret").VerifyAll()
		require.False(t, result.Success)
		assert.True(t, errors.Is(result.Err, manifest.ErrSignatureInvalid))
	})
}

func TestVerifyAll_RequiresSecret(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{"a.rego": "package a\n"})
	t.Setenv(manifest.EnvSigningSecret, "")

	result := manifest.NewDirVerifier(dir, "").VerifyAll()
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, manifest.ErrSecretMissing))
}

func TestVerifyAll_SecretFromEnv(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{"a.rego": "package a\n"})

	m, err := manifest.Sign(dir, []string{"a.rego"}, testSecret, "admin")
	require.NoError(t, err)
	require.NoError(t, manifest.Save(m, filepath.Join(dir, manifest.DefaultFileName)))

	t.Setenv(manifest.EnvSigningSecret, testSecret)
	result := manifest.NewDirVerifier(dir, "").VerifyAll()
	require.NoError(t, result.Err)
	assert.True(t, result.Success)
}

func TestVerifyAll_MissingManifest(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{"a.rego": "package a\n"})

	result := manifest.NewDirVerifier(dir, testSecret).VerifyAll()
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, manifest.ErrNotFound))
}

func TestVerifyAll_InlineSource(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{"a.rego": "package a\n"})

	m, err := manifest.Sign(dir, []string{"a.rego"}, testSecret, "admin")
	require.NoError(t, err)

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	v := manifest.NewVerifier(dir, manifest.InlineSource{Data: raw}, testSecret)
	result := v.VerifyAll()
	require.NoError(t, result.Err)
	assert.True(t, result.Success)
}

func TestSignatureIgnoresFileOrder(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{
		"a.rego": "package a\n",
		"b.rego": "package b\n",
	})

	m1, err := manifest.Sign(dir, []string{"a.rego", "b.rego"}, testSecret, "admin")
	require.NoError(t, err)
	m2, err := manifest.Sign(dir, []string{"b.rego", "a.rego"}, testSecret, "admin")
	require.NoError(t, err)

	// Same content, same signer: listing order must not change the file
	// hashes, and canonicalization keeps both manifests verifiable.
	assert.Equal(t, m1.Files, m2.Files)

	require.NoError(t, manifest.Save(m2, filepath.Join(dir, manifest.DefaultFileName)))
	result := manifest.NewDirVerifier(dir, testSecret).VerifyAll()
	assert.True(t, result.Success)
}

func TestSign_RequiresSecret(t *testing.T) {
	dir := writePolicyDir(t, map[string]string{"a.rego": "package a\n"})
	_, err := manifest.Sign(dir, []string{"a.rego"}, "", "admin")
	assert.True(t, errors.Is(err, manifest.ErrSecretMissing))
}
