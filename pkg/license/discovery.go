package license

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment variables consumed by license discovery and configuration.
const (
	// EnvLicenseToken supplies the raw license token directly.
	EnvLicenseToken = "KEYGATE_LICENSE_TOKEN"

	// EnvLicenseFile names an explicit token file.
	EnvLicenseFile = "KEYGATE_LICENSE_FILE"

	// EnvAuthorityURL is the base URL of the remote license authority.
	EnvAuthorityURL = "KEYGATE_LICENSE_SERVER_URL"

	// EnvNoDiscovery disables automatic license discovery when set to a
	// non-empty value (test/offline mode).
	EnvNoDiscovery = "KEYGATE_NO_LICENSE_DISCOVERY"

	// EnvRequestedTier requests a tier downgrade for testing. Escalation
	// requests are ignored.
	EnvRequestedTier = "KEYGATE_REQUESTED_TIER"
)

// workspaceLicenseFile is the conventional token file in the working
// directory.
const workspaceLicenseFile = "keygate.license"

// DiscoverToken locates the raw license token: the token env var, then an
// explicitly named token file, then the workspace file, then the user's
// home directory. A missing token is not an error; it means Community.
// Discovery is skipped entirely when EnvNoDiscovery is set.
func DiscoverToken() string {
	if os.Getenv(EnvNoDiscovery) != "" {
		return ""
	}

	if token := strings.TrimSpace(os.Getenv(EnvLicenseToken)); token != "" {
		return token
	}

	candidates := []string{}
	if path := os.Getenv(EnvLicenseFile); path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, workspaceLicenseFile)
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".keygate", "license"))
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}

	return ""
}

// AuthorityURL returns the configured remote authority base URL, or "" if
// only local validation is available.
func AuthorityURL() string {
	return strings.TrimRight(os.Getenv(EnvAuthorityURL), "/")
}

// RequestedTier returns the env-requested downgrade tier, if any.
func RequestedTier() (Tier, bool) {
	name := strings.TrimSpace(os.Getenv(EnvRequestedTier))
	if name == "" {
		return TierCommunity, false
	}
	return ParseTier(name), true
}
