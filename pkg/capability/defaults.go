package capability

import "github.com/keygate/keygate-core/pkg/license"

// Known analysis tool IDs.
const (
	ToolASTParse          = "ast_parse"
	ToolCallGraph         = "call_graph"
	ToolSymbolicExecution = "symbolic_execution"
	ToolTaintAnalysis     = "taint_analysis"
	ToolDeadCode          = "dead_code"
)

// defaultTable holds the compiled-in capability table for every known
// (tool, tier) pair. Each pair stands on its own: a higher tier is not
// guaranteed to be a superset of a lower one.
func defaultTable() map[license.Tier]map[string]ToolCapability {
	return map[license.Tier]map[string]ToolCapability{
		license.TierCommunity: {
			ToolASTParse: {
				Available: true,
				Limits: map[string]Limit{
					"max_files":        Bounded(200),
					"max_file_size_kb": Bounded(512),
					"timeout_seconds":  Bounded(30),
				},
			},
			ToolCallGraph: {
				Available: true,
				Limits: map[string]Limit{
					"max_depth":       Bounded(3),
					"max_nodes":       Bounded(2000),
					"timeout_seconds": Bounded(30),
				},
			},
			ToolDeadCode: {
				Available: true,
				Limits: map[string]Limit{
					"max_files":       Bounded(200),
					"timeout_seconds": Bounded(30),
				},
			},
			ToolSymbolicExecution: {Available: false},
			ToolTaintAnalysis:     {Available: false},
		},
		license.TierPro: {
			ToolASTParse: {
				Available: true,
				Limits: map[string]Limit{
					"max_files":        Bounded(5000),
					"max_file_size_kb": Bounded(4096),
					"timeout_seconds":  Bounded(120),
				},
				Capabilities: []string{"incremental"},
			},
			ToolCallGraph: {
				Available: true,
				Limits: map[string]Limit{
					"max_depth":       Bounded(10),
					"max_nodes":       Bounded(50000),
					"timeout_seconds": Bounded(120),
				},
				Capabilities: []string{"cross_package"},
			},
			ToolDeadCode: {
				Available: true,
				Limits: map[string]Limit{
					"max_files":       Bounded(5000),
					"timeout_seconds": Bounded(120),
				},
			},
			ToolSymbolicExecution: {
				Available: true,
				Limits: map[string]Limit{
					"max_paths":       Bounded(1000),
					"max_depth":       Bounded(20),
					"timeout_seconds": Bounded(120),
				},
			},
			ToolTaintAnalysis: {
				Available: true,
				Limits: map[string]Limit{
					"max_sources":     Bounded(50),
					"timeout_seconds": Bounded(120),
				},
			},
		},
		license.TierEnterprise: {
			ToolASTParse: {
				Available: true,
				Limits: map[string]Limit{
					"max_files":        Unlimited(),
					"max_file_size_kb": Unlimited(),
					"timeout_seconds":  Bounded(600),
				},
				Capabilities: []string{"incremental"},
			},
			ToolCallGraph: {
				Available: true,
				Limits: map[string]Limit{
					"max_depth":       Unlimited(),
					"max_nodes":       Unlimited(),
					"timeout_seconds": Bounded(600),
				},
				Capabilities: []string{"cross_package", "whole_program"},
			},
			ToolDeadCode: {
				Available: true,
				Limits: map[string]Limit{
					"max_files":       Unlimited(),
					"timeout_seconds": Bounded(600),
				},
			},
			ToolSymbolicExecution: {
				Available: true,
				Limits: map[string]Limit{
					"max_paths":       Unlimited(),
					"max_depth":       Bounded(100),
					"timeout_seconds": Bounded(600),
				},
				Capabilities: []string{"interprocedural"},
			},
			ToolTaintAnalysis: {
				Available: true,
				Limits: map[string]Limit{
					"max_sources":     Unlimited(),
					"timeout_seconds": Bounded(600),
				},
				Capabilities: []string{"custom_sinks"},
			},
		},
	}
}
