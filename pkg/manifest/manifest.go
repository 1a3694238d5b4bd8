// Package manifest creates and verifies HMAC-signed manifests binding a
// set of policy files to content hashes, so tampering with any governed
// file is detected before a policy-governed tool runs.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/keygate/keygate-core/internal/atomicfile"
)

// DefaultFileName is the conventional manifest file name, stored beside
// the policy files it protects.
const DefaultFileName = "policy.manifest.json"

// EnvSigningSecret names the environment variable supplying the signing
// secret. The secret is never stored in the manifest.
const EnvSigningSecret = "KEYGATE_MANIFEST_SECRET"

// Manifest is a signed index of policy files. It is created once by an
// administrator workflow and read-only thereafter, except for re-signing
// after legitimate policy edits.
type Manifest struct {
	// Version identifies the manifest schema revision.
	Version string `json:"version"`

	// SignedBy records who produced the signature.
	SignedBy string `json:"signed_by"`

	// CreatedAt records when the manifest was signed.
	CreatedAt time.Time `json:"created_at"`

	// Files maps each governed filename to its hex SHA-256. Insertion
	// order is irrelevant; the signature covers a canonical form.
	Files map[string]string `json:"files"`

	// Signature is the hex HMAC-SHA256 over the canonical payload.
	Signature string `json:"signature"`
}

// CurrentVersion is the manifest schema version this package writes.
const CurrentVersion = "1"

// Sign hashes each listed file under dir and returns a signed manifest.
// The caller persists it (see Save).
func Sign(dir string, files []string, secret, signedBy string) (*Manifest, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}

	hashes := make(map[string]string, len(files))
	for _, name := range files {
		sum, err := hashFile(filepath.Join(dir, name))
		if err != nil {
			return nil, WrapError(ErrCodeFileUnreadable, fmt.Sprintf("failed to hash %s", name), err)
		}
		hashes[name] = sum
	}

	m := &Manifest{
		Version:   CurrentVersion,
		SignedBy:  signedBy,
		CreatedAt: time.Now().UTC(),
		Files:     hashes,
	}

	sig, err := computeSignature(m, secret)
	if err != nil {
		return nil, err
	}
	m.Signature = sig
	return m, nil
}

// Save persists the manifest at path via atomic replace.
func Save(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest from path. The result is untrusted until its
// signature is verified.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, WrapError(ErrCodeNotFound, fmt.Sprintf("manifest not found at %s", path), err)
	}
	if err != nil {
		return nil, WrapError(ErrCodeMalformed, "failed to read manifest", err)
	}
	return Parse(data)
}

// Parse decodes manifest bytes. The result is untrusted until its
// signature is verified.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, WrapError(ErrCodeMalformed, "failed to parse manifest", err)
	}
	return &m, nil
}

// hashFile returns the hex SHA-256 of a file's content.
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
