package capability

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/keygate/keygate-core/pkg/license"
)

// ConfigError indicates a malformed override limits file. The resolver
// collapses it to empty overrides at a single documented boundary; it is
// surfaced here as a typed error for logging and ops tooling.
type ConfigError struct {
	// Message describes what was malformed.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("CONFIG_LOAD_ERROR: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("CONFIG_LOAD_ERROR: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// toolOverride is the parsed override for one (tool, tier) pair. Nil
// pointers and nil maps mean "field not specified, keep the default".
type toolOverride struct {
	available    *bool
	capabilities []string
	limits       map[string]Limit
}

// overrides maps tier → tool → override.
type overrides map[license.Tier]map[string]toolOverride

// Reserved keys inside a per-tool override table. Every other key is a
// limit name.
const (
	keyAvailable    = "available"
	keyCapabilities = "capabilities"
)

// parseOverrides decodes an override limits file: top-level sections per
// tier, each containing per-tool tables of limit names to values. The -1
// sentinel normalizes to Unlimited here, at load time.
func parseOverrides(data []byte) (overrides, error) {
	if len(data) == 0 {
		return overrides{}, nil
	}

	var raw map[string]map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse limits file", Cause: err}
	}

	out := overrides{}
	for tierName, tools := range raw {
		tier := license.ParseTier(tierName)
		if tier.String() != tierName {
			return nil, &ConfigError{Message: fmt.Sprintf("unknown tier section %q", tierName)}
		}
		tierOverrides := map[string]toolOverride{}
		for toolID, table := range tools {
			ov := toolOverride{}
			for key, value := range table {
				switch key {
				case keyAvailable:
					b, ok := value.(bool)
					if !ok {
						return nil, &ConfigError{Message: fmt.Sprintf("%s.%s.available must be a bool", tierName, toolID)}
					}
					ov.available = &b
				case keyCapabilities:
					caps, err := toStringList(value)
					if err != nil {
						return nil, &ConfigError{Message: fmt.Sprintf("%s.%s.capabilities: %v", tierName, toolID, err)}
					}
					ov.capabilities = caps
				default:
					limit, err := toLimit(value)
					if err != nil {
						return nil, &ConfigError{Message: fmt.Sprintf("%s.%s.%s: %v", tierName, toolID, key, err)}
					}
					if ov.limits == nil {
						ov.limits = map[string]Limit{}
					}
					ov.limits[key] = limit
				}
			}
			tierOverrides[toolID] = ov
		}
		out[tier] = tierOverrides
	}
	return out, nil
}

// toLimit normalizes a raw YAML value into a Limit. Numeric -1 means
// unlimited and never survives as a literal.
func toLimit(value interface{}) (Limit, error) {
	switch v := value.(type) {
	case int:
		if v == -1 {
			return Unlimited(), nil
		}
		return Bounded(int64(v)), nil
	case int64:
		if v == -1 {
			return Unlimited(), nil
		}
		return Bounded(v), nil
	case float64:
		if v != math.Trunc(v) {
			return Limit{}, fmt.Errorf("limit must be an integer, got %v", v)
		}
		if v == -1 {
			return Unlimited(), nil
		}
		return Bounded(int64(v)), nil
	case string:
		return StringValue(v), nil
	case []interface{}:
		items, err := toStringList(v)
		if err != nil {
			return Limit{}, err
		}
		return ListValue(items...), nil
	default:
		return Limit{}, fmt.Errorf("unsupported limit value %v", value)
	}
}

// toStringList coerces a YAML sequence into a string slice.
func toStringList(value interface{}) ([]string, error) {
	seq, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", value)
	}
	items := make([]string, 0, len(seq))
	for _, item := range seq {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string list items, got %T", item)
		}
		items = append(items, s)
	}
	return items, nil
}
