// Package capability resolves per-(tool, tier) limits and capabilities by
// merging compiled-in defaults with an optional override file. Tiers are
// not hierarchical: each (tool, tier) pair is resolved independently.
package capability

import "fmt"

// limitKind discriminates the Limit variants.
type limitKind int

const (
	kindUnlimited limitKind = iota
	kindNumber
	kindString
	kindList
)

// Limit is a tagged limit value: unlimited, a bounded number, a string, or
// a list of strings. The override file's -1 sentinel is normalized to
// Unlimited at load time and never surfaces to callers.
type Limit struct {
	kind limitKind
	num  int64
	str  string
	list []string
}

// Unlimited returns the unlimited limit.
func Unlimited() Limit {
	return Limit{kind: kindUnlimited}
}

// Bounded returns a numeric limit.
func Bounded(n int64) Limit {
	return Limit{kind: kindNumber, num: n}
}

// StringValue returns a string-valued limit.
func StringValue(s string) Limit {
	return Limit{kind: kindString, str: s}
}

// ListValue returns a list-valued limit.
func ListValue(items ...string) Limit {
	return Limit{kind: kindList, list: items}
}

// IsUnlimited reports whether the limit is unlimited.
func (l Limit) IsUnlimited() bool {
	return l.kind == kindUnlimited
}

// Number returns the numeric bound and whether the limit is numeric.
func (l Limit) Number() (int64, bool) {
	return l.num, l.kind == kindNumber
}

// Text returns the string value and whether the limit is string-valued.
func (l Limit) Text() (string, bool) {
	return l.str, l.kind == kindString
}

// List returns the list value and whether the limit is list-valued.
func (l Limit) List() ([]string, bool) {
	return l.list, l.kind == kindList
}

// String renders the limit for display.
func (l Limit) String() string {
	switch l.kind {
	case kindUnlimited:
		return "unlimited"
	case kindNumber:
		return fmt.Sprintf("%d", l.num)
	case kindString:
		return l.str
	default:
		return fmt.Sprintf("%v", l.list)
	}
}

// ToolCapability describes what one tool offers at one tier.
type ToolCapability struct {
	// Available reports whether the tool can be used at all at this tier.
	Available bool

	// Limits maps limit names to their values.
	Limits map[string]Limit

	// Capabilities lists the named capabilities the tier unlocks.
	Capabilities []string
}

// clone returns a deep copy so cached tables are never aliased by callers.
func (c ToolCapability) clone() ToolCapability {
	out := ToolCapability{Available: c.Available}
	if c.Limits != nil {
		out.Limits = make(map[string]Limit, len(c.Limits))
		for k, v := range c.Limits {
			out.Limits[k] = v
		}
	}
	if c.Capabilities != nil {
		out.Capabilities = append([]string(nil), c.Capabilities...)
	}
	return out
}
