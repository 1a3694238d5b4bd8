// Package license implements license authorization for the KeyGate tool
// server: local signature validation, remote authority verification with a
// persistent offline cache, and effective-tier resolution.
package license

import (
	"encoding/json"
	"time"
)

// Tier is a named entitlement level. Tiers control which tools and limits
// are available to a caller; they are not assumed to be hierarchical.
type Tier int

const (
	// TierCommunity is the lowest tier and the fail-closed default.
	TierCommunity Tier = iota

	// TierPro is the paid individual tier.
	TierPro

	// TierEnterprise is the organization tier.
	TierEnterprise
)

// tierNames maps tiers to their wire/config names.
var tierNames = map[Tier]string{
	TierCommunity:  "community",
	TierPro:        "pro",
	TierEnterprise: "enterprise",
}

// String returns the lowercase wire name of the tier.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "community"
}

// Rank returns the tier's position in the downgrade order. It exists only
// for downgrade comparison; it says nothing about tool availability.
func (t Tier) Rank() int {
	return int(t)
}

// ParseTier maps a tier name to a Tier. Unrecognized names fall back to
// Community rather than erroring.
func ParseTier(name string) Tier {
	switch name {
	case "pro":
		return TierPro
	case "enterprise":
		return TierEnterprise
	default:
		return TierCommunity
	}
}

// MarshalJSON encodes the tier as its wire name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier wire name; unknown names become Community.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*t = ParseTier(name)
	return nil
}

// Claims is the entitlement content of a license token. Claims are
// untrusted until a validator confirms authenticity.
type Claims struct {
	// Tier is the entitlement level the license grants.
	Tier Tier `json:"tier"`

	// Expiry is the license expiration time in Unix seconds.
	Expiry int64 `json:"exp"`

	// Features lists the feature flags the license enables, in the order
	// the authority issued them.
	Features []string `json:"features,omitempty"`

	// CustomerID identifies the licensee.
	CustomerID string `json:"customer_id"`

	// Organization is the licensee's organization, if any.
	Organization string `json:"organization,omitempty"`
}

// Expired reports whether the claims have expired relative to now.
func (c *Claims) Expired(now time.Time) bool {
	return c.Expiry <= now.Unix()
}

// HasFeature reports whether the license enables the named feature.
func (c *Claims) HasFeature(name string) bool {
	for _, f := range c.Features {
		if f == name {
			return true
		}
	}
	return false
}

// Reason tags how an authorization decision was reached.
type Reason string

const (
	// ReasonCacheFresh means a cached verification inside the refresh
	// window was honored without a network call.
	ReasonCacheFresh Reason = "cache_fresh"

	// ReasonRemoteVerified means the remote authority confirmed the
	// license on this call.
	ReasonRemoteVerified Reason = "remote_verified"

	// ReasonOfflineGrace means the authority was unreachable but a
	// previously verified record inside the grace window was honored.
	ReasonOfflineGrace Reason = "offline_grace"

	// ReasonLocalVerified means the token's signature was verified against
	// the local trust anchor (no remote authority configured).
	ReasonLocalVerified Reason = "local_verified"

	// ReasonLicenseExpired means the license exp is in the past.
	ReasonLicenseExpired Reason = "license_expired"

	// ReasonRevoked means the authority explicitly revoked the license.
	ReasonRevoked Reason = "revoked"

	// ReasonInvalidToken means the token failed validation.
	ReasonInvalidToken Reason = "invalid_token"

	// ReasonNetworkUnavailable means the authority was unreachable and no
	// grace applied.
	ReasonNetworkUnavailable Reason = "network_unavailable"
)

// Decision is the outcome of a single authorization request. It is
// produced once per request and never mutated; the next request is
// re-evaluated from scratch.
type Decision struct {
	// Allowed reports whether the caller holds a usable license.
	Allowed bool

	// Claims holds the verified entitlements. Nil unless Allowed.
	Claims *Claims

	// Reason tags how the decision was reached.
	Reason Reason

	// Err carries the typed failure for telemetry on deny decisions.
	// It never contains the raw token.
	Err error
}

// CacheRecord is the persisted result of a successful remote verification.
// It stores a content hash of the token, never the token itself.
type CacheRecord struct {
	// TokenHash is the hex SHA-256 of the raw token.
	TokenHash string `json:"token_hash"`

	// Claims are the entitlements the authority confirmed.
	Claims Claims `json:"claims"`

	// VerifiedAt is when the authority last confirmed the license.
	VerifiedAt time.Time `json:"verified_at"`
}
