// Package gate is the consumption seam between the trust core and tool
// dispatch: one call yields the caller's effective tier, the tool's
// limits, and the policy-integrity verdict. Tool routing and business
// logic stay outside.
package gate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keygate/keygate-core/pkg/capability"
	"github.com/keygate/keygate-core/pkg/license"
	"github.com/keygate/keygate-core/pkg/manifest"
)

// Access is the outcome of evaluating one tool call.
type Access struct {
	// Allowed reports whether dispatch may run the tool.
	Allowed bool

	// EvaluationID uniquely identifies this evaluation for audit trails.
	EvaluationID string

	// Timestamp is when the evaluation happened.
	Timestamp time.Time

	// Tier is the caller's effective tier.
	Tier license.Tier

	// Reason tags the underlying authorization decision.
	Reason license.Reason

	// Capability holds the tool's limits at the effective tier.
	Capability capability.ToolCapability

	// DenyDetail is a short, non-leaking description on deny.
	DenyDetail string
}

// Gate bundles tier resolution, capability lookup, and policy integrity
// into one evaluation per tool call.
type Gate struct {
	tiers        *license.TierResolver
	capabilities *capability.Resolver
	policies     *manifest.Verifier
}

// New creates a gate. The manifest verifier may be nil when no tools are
// policy-governed.
func New(tiers *license.TierResolver, capabilities *capability.Resolver, policies *manifest.Verifier) *Gate {
	return &Gate{tiers: tiers, capabilities: capabilities, policies: policies}
}

// EvaluateToolAccess computes whether the token holder may run toolID and
// under which limits. Policy-governed evaluations are denied outright when
// the policy directory fails integrity verification; an unavailable tool
// at the effective tier is denied with the tier named.
func (g *Gate) EvaluateToolAccess(ctx context.Context, toolID, token string) Access {
	tier, decision := g.tiers.ResolveWithEnvRequest(ctx, token)
	access := Access{
		EvaluationID: uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Tier:         tier,
		Reason:       decision.Reason,
	}

	if g.policies != nil {
		if result := g.policies.VerifyAll(); !result.Success {
			access.DenyDetail = "policy integrity verification failed"
			return access
		}
	}

	caps := g.capabilities.ToolCapabilities(toolID, tier)
	access.Capability = caps
	if !caps.Available {
		access.DenyDetail = "tool not available at tier " + tier.String()
		return access
	}

	access.Allowed = true
	return access
}
