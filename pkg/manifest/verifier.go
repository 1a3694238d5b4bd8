package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source is the strategy for loading the manifest to verify against:
// a file beside the policy directory, or an inline value baked into the
// deployment. Injected at construction so tests can swap it.
type Source interface {
	// Load returns the manifest. The result is untrusted until verified.
	Load() (*Manifest, error)
}

// FileSource loads the manifest from a file on disk.
type FileSource struct {
	// Path is the manifest file path.
	Path string
}

// Load reads the manifest file.
func (s FileSource) Load() (*Manifest, error) {
	return Load(s.Path)
}

// InlineSource holds manifest bytes supplied directly, e.g. a value pinned
// at a specific committed revision.
type InlineSource struct {
	// Data is the raw manifest JSON.
	Data []byte
}

// Load parses the inline manifest bytes.
func (s InlineSource) Load() (*Manifest, error) {
	return Parse(s.Data)
}

// Result is the outcome of verifying the policy directory. Callers treat
// any non-success result as "deny the operation".
type Result struct {
	// Success is true only if the manifest signature and every governed
	// file's hash matched.
	Success bool

	// FilesVerified is the number of files whose hashes matched.
	FilesVerified int

	// Err is the typed failure on non-success.
	Err error
}

// Verifier checks the integrity of a policy directory against a signed
// manifest. Every failure fails closed.
type Verifier struct {
	dir    string
	source Source
	secret string
}

// NewVerifier creates a verifier for the policy files under dir. If secret
// is empty it is read from EnvSigningSecret at verification time.
func NewVerifier(dir string, source Source, secret string) *Verifier {
	return &Verifier{dir: dir, source: source, secret: secret}
}

// NewDirVerifier creates a verifier using the conventional manifest file
// inside the policy directory itself.
func NewDirVerifier(dir string, secret string) *Verifier {
	return NewVerifier(dir, FileSource{Path: filepath.Join(dir, DefaultFileName)}, secret)
}

// VerifyAll verifies the manifest signature and every governed file.
// The manifest's own HMAC is checked before any file is compared; a
// manifest that fails its signature check is untrusted in its entirety.
func (v *Verifier) VerifyAll() Result {
	secret := v.secret
	if secret == "" {
		secret = os.Getenv(EnvSigningSecret)
	}
	if secret == "" {
		return Result{Err: ErrSecretMissing}
	}

	m, err := v.source.Load()
	if err != nil {
		return Result{Err: err}
	}

	ok, err := signatureMatches(m, secret)
	if err != nil {
		return Result{Err: WrapError(ErrCodeMalformed, "failed to canonicalize manifest", err)}
	}
	if !ok {
		return Result{Err: ErrSignatureInvalid}
	}

	verified := 0
	for name, recorded := range m.Files {
		live, err := hashFile(filepath.Join(v.dir, name))
		if err != nil {
			return Result{
				FilesVerified: verified,
				Err: &Error{
					Code:    ErrCodeTampered,
					Message: fmt.Sprintf("policy file %s missing or unreadable", name),
					File:    name,
					Cause:   err,
				},
			}
		}
		if live != recorded {
			return Result{
				FilesVerified: verified,
				Err: &Error{
					Code:    ErrCodeTampered,
					Message: fmt.Sprintf("policy file %s does not match manifest", name),
					File:    name,
				},
			}
		}
		verified++
	}

	return Result{Success: true, FilesVerified: verified}
}
