package license

import (
	"context"
	"sync"
	"time"
)

// MidSessionGrace is how long a previously observed valid tier is retained
// after the license merely expires. Revocation gets no such grace.
const MidSessionGrace = 24 * time.Hour

// Authorizer is the strategy interface over the two validators. The remote
// authority is the canonical trust root; the local validator is the
// alternate for deployments without one.
type Authorizer interface {
	Authorize(ctx context.Context, token string) Decision
}

// TierResolver computes the effective tier for a request by combining the
// active validator's decision with an optional requested downgrade. It is
// safe for concurrent use.
type TierResolver struct {
	authorizer Authorizer
	now        func() time.Time

	mu       sync.Mutex
	lastTier Tier
	lastSeen time.Time
	hasLast  bool
}

// TierResolverOption configures a TierResolver.
type TierResolverOption func(*TierResolver)

// WithResolverClock overrides the resolver's clock (for testing).
func WithResolverClock(now func() time.Time) TierResolverOption {
	return func(r *TierResolver) {
		r.now = now
	}
}

// NewTierResolver creates a resolver over the given validator.
func NewTierResolver(authorizer Authorizer, opts ...TierResolverOption) *TierResolver {
	r := &TierResolver{
		authorizer: authorizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the effective tier for the token, alongside the raw
// authorization decision. A requested tier may only downgrade the licensed
// tier, never escalate it. An expired (not revoked) license retains the
// last tier observed within MidSessionGrace; a revoked license clamps to
// Community immediately and forgets the remembered tier.
func (r *TierResolver) Resolve(ctx context.Context, token string, requested *Tier) (Tier, Decision) {
	if token == "" {
		return r.applyRequested(TierCommunity, requested), Decision{
			Allowed: false,
			Reason:  ReasonInvalidToken,
			Err:     NewError(ErrCodeInvalidToken, "no license token present"),
		}
	}

	decision := r.authorizer.Authorize(ctx, token)
	licensed := r.licensedTier(decision)
	return r.applyRequested(licensed, requested), decision
}

// ResolveWithEnvRequest resolves the given token, honoring a requested
// downgrade from the environment if one is set.
func (r *TierResolver) ResolveWithEnvRequest(ctx context.Context, token string) (Tier, Decision) {
	var requested *Tier
	if tier, ok := RequestedTier(); ok {
		requested = &tier
	}
	return r.Resolve(ctx, token, requested)
}

// ResolveFromEnv runs discovery for both the token and the requested tier.
func (r *TierResolver) ResolveFromEnv(ctx context.Context) (Tier, Decision) {
	return r.ResolveWithEnvRequest(ctx, DiscoverToken())
}

func (r *TierResolver) licensedTier(decision Decision) Tier {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	switch {
	case decision.Allowed && decision.Claims != nil:
		r.lastTier = decision.Claims.Tier
		r.lastSeen = now
		r.hasLast = true
		return decision.Claims.Tier

	case decision.Reason == ReasonRevoked:
		r.hasLast = false
		return TierCommunity

	case decision.Reason == ReasonLicenseExpired:
		if r.hasLast && now.Sub(r.lastSeen) <= MidSessionGrace {
			return r.lastTier
		}
		return TierCommunity

	default:
		return TierCommunity
	}
}

func (r *TierResolver) applyRequested(licensed Tier, requested *Tier) Tier {
	if requested != nil && requested.Rank() <= licensed.Rank() {
		return *requested
	}
	return licensed
}
