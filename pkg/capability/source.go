package capability

import (
	"os"
)

// EnvLimitsFile names an explicit override limits file.
const EnvLimitsFile = "KEYGATE_LIMITS_FILE"

// WorkspaceLimitsFile is the conventional override file in the working
// directory.
const WorkspaceLimitsFile = "keygate.limits.yaml"

// Source is the strategy for locating override limits data. Injected at
// construction so override locations are swappable in tests without
// touching process globals.
type Source interface {
	// Load returns the raw override bytes, or nil if no override exists.
	Load() ([]byte, error)
}

// FileSource loads overrides from an explicit file path. A missing file is
// not an error; it means no overrides.
type FileSource struct {
	// Path is the override file path.
	Path string
}

// Load reads the override file.
func (s FileSource) Load() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// InlineSource holds override bytes supplied directly (for tests).
type InlineSource struct {
	// Data is the raw override YAML.
	Data []byte
}

// Load returns the inline bytes.
func (s InlineSource) Load() ([]byte, error) {
	return s.Data, nil
}

// DiscoverSource returns the override source by priority: the explicit
// env-configured path, then the workspace file. With neither present the
// compiled-in defaults stand alone.
func DiscoverSource() Source {
	if path := os.Getenv(EnvLimitsFile); path != "" {
		return FileSource{Path: path}
	}
	return FileSource{Path: WorkspaceLimitsFile}
}
