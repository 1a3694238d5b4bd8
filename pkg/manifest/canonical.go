package manifest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// canonicalPayload creates the canonical JSON representation of the
// manifest for signing. It removes the "signature" field and relies on
// encoding/json's sorted map keys for canonicalization, so the insertion
// order of Files never affects the signature.
func canonicalPayload(m *Manifest) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	var rawMap map[string]interface{}
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	delete(rawMap, "signature")

	canonical, err := json.Marshal(rawMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create canonical json: %w", err)
	}

	return canonical, nil
}

// computeSignature returns the hex HMAC-SHA256 over the manifest's
// canonical payload.
func computeSignature(m *Manifest, secret string) (string, error) {
	payload, err := canonicalPayload(m)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// signatureMatches recomputes the manifest HMAC and compares it to the
// recorded signature in constant time.
func signatureMatches(m *Manifest, secret string) (bool, error) {
	expected, err := computeSignature(m, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(m.Signature)), nil
}
