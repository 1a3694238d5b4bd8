package license

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// Trust anchor configuration for local validation.
const (
	// EnvTrustAnchor supplies the trust anchor JWK as inline JSON.
	EnvTrustAnchor = "KEYGATE_TRUST_ANCHOR"

	// EnvTrustAnchorFile names a file containing the trust anchor JWK.
	EnvTrustAnchorFile = "KEYGATE_TRUST_ANCHOR_FILE"
)

// LoadTrustAnchor reads the configured trust anchor JWK from the
// environment: inline JSON first, then a file path. Returns nil with no
// error when neither is configured; the validator then fails closed.
func LoadTrustAnchor() (*jose.JSONWebKey, error) {
	raw := []byte(os.Getenv(EnvTrustAnchor))
	if len(raw) == 0 {
		path := os.Getenv(EnvTrustAnchorFile)
		if path == "" {
			return nil, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError(ErrCodeTrustAnchorMissing, "failed to read trust anchor file", err)
		}
		raw = data
	}

	var key jose.JSONWebKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, WrapError(ErrCodeTrustAnchorMissing, "failed to parse trust anchor", err)
	}
	return &key, nil
}

// LocalValidator verifies a license token's JWS signature against a
// configured trust anchor and extracts claims. It is the alternate trust
// strategy for deployments without a remote authority; it supports no
// revocation and no offline grace of its own.
type LocalValidator struct {
	anchor *jose.JSONWebKey
	now    func() time.Time
}

// LocalValidatorOption configures a LocalValidator.
type LocalValidatorOption func(*LocalValidator)

// WithClock overrides the validator's clock (for testing).
func WithClock(now func() time.Time) LocalValidatorOption {
	return func(v *LocalValidator) {
		v.now = now
	}
}

// NewLocalValidator creates a validator trusting the given anchor key.
// A nil anchor is permitted; validation then fails closed.
func NewLocalValidator(anchor *jose.JSONWebKey, opts ...LocalValidatorOption) *LocalValidator {
	v := &LocalValidator{
		anchor: anchor,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate verifies the token's signature and returns its claims. Any
// parse error, missing trust anchor, signature mismatch, or expired
// license yields a typed error; the caller maps every failure to the
// Community tier. Claim content is never trusted before the signature
// checks out.
func (v *LocalValidator) Validate(token string) (*Claims, error) {
	if v.anchor == nil {
		return nil, ErrTrustAnchorMissing
	}

	jwsObj, err := jose.ParseSigned(token, []jose.SignatureAlgorithm{jose.EdDSA, jose.ES256})
	if err != nil {
		return nil, WrapError(ErrCodeMalformed, fmt.Sprintf("failed to parse token %s", Redact(token)), err)
	}

	payload, err := jwsObj.Verify(v.anchor)
	if err != nil {
		return nil, WrapError(ErrCodeSignatureInvalid, fmt.Sprintf("signature check failed for token %s", Redact(token)), err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, WrapError(ErrCodeMalformed, "failed to unmarshal verified claims", err)
	}

	if claims.Expiry == 0 {
		return nil, NewError(ErrCodeMalformed, "missing exp claim")
	}
	if claims.Expired(v.now()) {
		return nil, NewError(ErrCodeExpired, fmt.Sprintf("license expired at %s", time.Unix(claims.Expiry, 0).Format(time.RFC3339)))
	}

	return &claims, nil
}

// Authorize adapts Validate to the common decision shape shared with the
// remote verifier. The context is accepted for interface symmetry; local
// validation never blocks.
func (v *LocalValidator) Authorize(_ context.Context, token string) Decision {
	claims, err := v.Validate(token)
	if err != nil {
		reason := ReasonInvalidToken
		if GetErrorCode(err) == ErrCodeExpired {
			reason = ReasonLicenseExpired
		}
		return Decision{Allowed: false, Reason: reason, Err: err}
	}
	return Decision{Allowed: true, Claims: claims, Reason: ReasonLocalVerified}
}
