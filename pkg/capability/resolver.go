package capability

import (
	"log"
	"sort"
	"sync"

	"github.com/keygate/keygate-core/pkg/license"
)

// Resolver serves the merged (tool, tier) capability table. The merge of
// compiled-in defaults and override data is computed once and cached
// process-wide; Reload and ClearCache force a fresh load for ops tooling
// that swaps the override file at runtime.
type Resolver struct {
	source Source

	mu     sync.RWMutex
	table  map[license.Tier]map[string]ToolCapability
	loaded bool
}

// NewResolver creates a resolver over the given override source. A nil
// source uses the discovery chain (explicit env path, then workspace file).
func NewResolver(source Source) *Resolver {
	if source == nil {
		source = DiscoverSource()
	}
	return &Resolver{source: source}
}

// ToolCapabilities returns the merged capability for one (tool, tier)
// pair. Unknown tools are unavailable; unknown tier names have already
// collapsed to Community at parse time.
func (r *Resolver) ToolCapabilities(toolID string, tier license.Tier) ToolCapability {
	table := r.load()
	if caps, ok := table[tier][toolID]; ok {
		return caps.clone()
	}
	return ToolCapability{Available: false}
}

// AllCapabilities returns the merged table for every known tool at the
// given tier.
func (r *Resolver) AllCapabilities(tier license.Tier) map[string]ToolCapability {
	table := r.load()
	out := make(map[string]ToolCapability, len(table[tier]))
	for toolID, caps := range table[tier] {
		out[toolID] = caps.clone()
	}
	return out
}

// KnownTools returns the sorted tool IDs present in the table.
func (r *Resolver) KnownTools() []string {
	table := r.load()
	seen := map[string]bool{}
	for _, tools := range table {
		for toolID := range tools {
			seen[toolID] = true
		}
	}
	out := make([]string, 0, len(seen))
	for toolID := range seen {
		out = append(out, toolID)
	}
	sort.Strings(out)
	return out
}

// Reload discards the cached table and rebuilds it from the source now.
// Reads issued after Reload returns see the new data.
func (r *Resolver) Reload() {
	r.mu.Lock()
	r.table = r.build()
	r.loaded = true
	r.mu.Unlock()
}

// ClearCache discards the cached table; the next read rebuilds it.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.table = nil
	r.loaded = false
	r.mu.Unlock()
}

// load returns the cached table, building it on first use.
func (r *Resolver) load() map[license.Tier]map[string]ToolCapability {
	r.mu.RLock()
	if r.loaded {
		table := r.table
		r.mu.RUnlock()
		return table
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.table = r.build()
		r.loaded = true
	}
	return r.table
}

// build merges defaults with override data. This is the single boundary
// where a bad override file collapses to empty overrides: a read failure
// or malformed file logs a warning and the defaults stand, never a crash.
func (r *Resolver) build() map[license.Tier]map[string]ToolCapability {
	table := defaultTable()

	data, err := r.source.Load()
	if err != nil {
		log.Printf("limits override unreadable, using defaults: %v", err)
		return table
	}
	ov, err := parseOverrides(data)
	if err != nil {
		log.Printf("limits override rejected, using defaults: %v", err)
		return table
	}

	for tier, tools := range ov {
		for toolID, o := range tools {
			merged := table[tier][toolID]
			if o.available != nil {
				merged.Available = *o.available
			}
			if o.capabilities != nil {
				merged.Capabilities = append([]string(nil), o.capabilities...)
			}
			if len(o.limits) > 0 {
				// defaultTable is rebuilt per load, so the map is ours to
				// mutate; only the named limits are replaced.
				if merged.Limits == nil {
					merged.Limits = map[string]Limit{}
				}
				for name, limit := range o.limits {
					merged.Limits[name] = limit
				}
			}
			if table[tier] == nil {
				table[tier] = map[string]ToolCapability{}
			}
			table[tier][toolID] = merged
		}
	}
	return table
}
