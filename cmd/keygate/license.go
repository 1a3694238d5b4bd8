package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keygate/keygate-core/pkg/license"
)

var flagLicenseJSON bool

func init() {
	licenseStatusCmd.Flags().BoolVar(&flagLicenseJSON, "json", false, "Output status as JSON")

	licenseCmd.AddCommand(licenseStatusCmd)
	rootCmd.AddCommand(licenseCmd)
}

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Inspect license authorization",
}

var licenseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective tier for the discovered license",
	Long:  `Runs license discovery and the active validator, then prints the effective tier and the decision reason. Never prints the raw token.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolver, err := buildTierResolver()
		if err != nil {
			return err
		}

		tier, decision := resolver.ResolveFromEnv(cmd.Context())

		if flagLicenseJSON {
			out := struct {
				Tier    string `json:"tier"`
				Allowed bool   `json:"allowed"`
				Reason  string `json:"reason"`
			}{
				Tier:    tier.String(),
				Allowed: decision.Allowed,
				Reason:  string(decision.Reason),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Printf("Tier:    %s\n", tier)
		fmt.Printf("Allowed: %v\n", decision.Allowed)
		fmt.Printf("Reason:  %s\n", decision.Reason)
		return nil
	},
}

// buildTierResolver wires the canonical trust root: the remote authority
// when one is configured, the local trust anchor otherwise.
func buildTierResolver() (*license.TierResolver, error) {
	if baseURL := license.AuthorityURL(); baseURL != "" {
		store, err := license.NewFileStore("")
		if err != nil {
			return nil, err
		}
		return license.NewTierResolver(license.NewRemoteVerifier(baseURL, store)), nil
	}

	anchor, err := license.LoadTrustAnchor()
	if err != nil {
		return nil, err
	}
	return license.NewTierResolver(license.NewLocalValidator(anchor)), nil
}
