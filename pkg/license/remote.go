package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Verification windows. A cached verification is honored without a network
// call inside RefreshWindow; if the authority is unreachable, it is honored
// for a further OfflineGrace beyond that, then denied.
const (
	// RefreshWindow is how long a successful verification stays fresh.
	RefreshWindow = 24 * time.Hour

	// OfflineGrace is the extra window during which a previously verified
	// license is honored despite remote unavailability.
	OfflineGrace = 24 * time.Hour

	// DefaultVerifyTimeout bounds the remote verification call.
	DefaultVerifyTimeout = 10 * time.Second
)

// RemoteVerifier delegates license trust decisions to a remote authority,
// with a persistent cache implementing freshness and offline-grace windows.
// It is safe for concurrent use.
type RemoteVerifier struct {
	baseURL string
	client  *http.Client
	store   CacheStore
	now     func() time.Time
}

// RemoteVerifierOption configures a RemoteVerifier.
type RemoteVerifierOption func(*RemoteVerifier)

// WithHTTPClient overrides the HTTP client used for verification calls.
func WithHTTPClient(client *http.Client) RemoteVerifierOption {
	return func(v *RemoteVerifier) {
		v.client = client
	}
}

// WithNow overrides the verifier's clock (for testing).
func WithNow(now func() time.Time) RemoteVerifierOption {
	return func(v *RemoteVerifier) {
		v.now = now
	}
}

// NewRemoteVerifier creates a verifier for the authority at baseURL,
// persisting verification results in store.
func NewRemoteVerifier(baseURL string, store CacheStore, opts ...RemoteVerifierOption) *RemoteVerifier {
	v := &RemoteVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultVerifyTimeout},
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// verifyResponse is the authority's wire response.
type verifyResponse struct {
	Valid   bool `json:"valid"`
	Revoked bool `json:"revoked"`
	License *struct {
		Tier         string   `json:"tier"`
		Features     []string `json:"features"`
		Expiry       int64    `json:"exp"`
		CustomerID   string   `json:"customer_id"`
		Organization string   `json:"organization"`
	} `json:"license"`
}

// Authorize decides whether the token holder is entitled. The decision is
// terminal for this call; nothing beyond the cache record survives to the
// next call. Every error embedded in the decision identifies the token by
// hash only.
func (v *RemoteVerifier) Authorize(ctx context.Context, token string) Decision {
	tokenHash := TokenHash(token)
	now := v.now()

	cached, err := v.store.Load()
	if err != nil {
		cached = nil
	}
	cacheMatches := cached != nil && cached.TokenHash == tokenHash

	// Fresh cache short-circuits the network entirely. Expiry is still
	// evaluated against the current clock: lapsed cached claims deny here
	// rather than being served fresh.
	if cacheMatches && now.Sub(cached.VerifiedAt) <= RefreshWindow {
		if cached.Claims.Expired(now) {
			return expiredDecision(cached.Claims.Expiry)
		}
		claims := cached.Claims
		return Decision{Allowed: true, Claims: &claims, Reason: ReasonCacheFresh}
	}

	// A stale record, expired or not, goes back to the authority; a license
	// renewed server-side under the same token must be re-admitted here.
	resp, err := v.callAuthority(ctx, token)
	if err != nil {
		// Unreachable authority: honor the cached verification inside the
		// grace window, deny otherwise. Grace never outlives the claims.
		if cacheMatches && now.Sub(cached.VerifiedAt) <= RefreshWindow+OfflineGrace {
			if cached.Claims.Expired(now) {
				return expiredDecision(cached.Claims.Expiry)
			}
			claims := cached.Claims
			return Decision{Allowed: true, Claims: &claims, Reason: ReasonOfflineGrace}
		}
		return Decision{
			Allowed: false,
			Reason:  ReasonNetworkUnavailable,
			Err:     WrapError(ErrCodeNetworkUnavailable, fmt.Sprintf("verification failed for token %s", Redact(token)), err),
		}
	}

	// Revocation bypasses every grace window.
	if resp.Revoked {
		return Decision{
			Allowed: false,
			Reason:  ReasonRevoked,
			Err:     NewError(ErrCodeRevoked, fmt.Sprintf("token %s revoked by authority", Redact(token))),
		}
	}

	if !resp.Valid || resp.License == nil {
		return Decision{
			Allowed: false,
			Reason:  ReasonInvalidToken,
			Err:     NewError(ErrCodeInvalidToken, fmt.Sprintf("token %s rejected by authority", Redact(token))),
		}
	}

	claims := Claims{
		Tier:         ParseTier(resp.License.Tier),
		Expiry:       resp.License.Expiry,
		Features:     resp.License.Features,
		CustomerID:   resp.License.CustomerID,
		Organization: resp.License.Organization,
	}

	// Expiry is evaluated fresh on every call and overrides any grace.
	if claims.Expired(now) {
		return expiredDecision(claims.Expiry)
	}

	// Persist before returning; a failed write degrades the next call to a
	// re-verification, it does not invalidate this decision.
	_ = v.store.Store(&CacheRecord{
		TokenHash:  tokenHash,
		Claims:     claims,
		VerifiedAt: now,
	})

	return Decision{Allowed: true, Claims: &claims, Reason: ReasonRemoteVerified}
}

func expiredDecision(expiry int64) Decision {
	return Decision{
		Allowed: false,
		Reason:  ReasonLicenseExpired,
		Err:     NewError(ErrCodeExpired, fmt.Sprintf("license expired at %s", time.Unix(expiry, 0).Format(time.RFC3339))),
	}
}

// callAuthority performs the single bounded POST to the authority. There is
// no retry loop; failure falls through to the offline-grace branch.
func (v *RemoteVerifier) callAuthority(ctx context.Context, token string) (*verifyResponse, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, fmt.Errorf("failed to encode verify request: %w", err)
	}

	endpoint := v.baseURL + "/verify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authority returned status %d", resp.StatusCode)
	}

	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	return &decoded, nil
}
