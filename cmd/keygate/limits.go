package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/keygate/keygate-core/pkg/capability"
	"github.com/keygate/keygate-core/pkg/license"
)

var flagLimitsJSON bool

func init() {
	limitsShowCmd.Flags().BoolVar(&flagLimitsJSON, "json", false, "Output the table as JSON")

	limitsCmd.AddCommand(limitsShowCmd)
	rootCmd.AddCommand(limitsCmd)
}

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Inspect per-tool limits",
}

var limitsShowCmd = &cobra.Command{
	Use:   "show <tier>",
	Short: "Show the merged limits table for a tier",
	Long:  `Prints every known tool's availability, limits, and capabilities at the given tier, after merging overrides from the discovered limits file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		tier := license.ParseTier(args[0])
		resolver := capability.NewResolver(nil)
		table := resolver.AllCapabilities(tier)

		if flagLimitsJSON {
			out := map[string]map[string]interface{}{}
			for toolID, caps := range table {
				entry := map[string]interface{}{
					"available":    caps.Available,
					"capabilities": caps.Capabilities,
				}
				limits := map[string]string{}
				for name, limit := range caps.Limits {
					limits[name] = limit.String()
				}
				entry["limits"] = limits
				out[toolID] = entry
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		tools := make([]string, 0, len(table))
		for toolID := range table {
			tools = append(tools, toolID)
		}
		sort.Strings(tools)

		fmt.Printf("Tier: %s\n", tier)
		for _, toolID := range tools {
			caps := table[toolID]
			fmt.Printf("\n%s (available: %v)\n", toolID, caps.Available)
			names := make([]string, 0, len(caps.Limits))
			for name := range caps.Limits {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-20s %s\n", name, caps.Limits[name])
			}
			for _, c := range caps.Capabilities {
				fmt.Printf("  + %s\n", c)
			}
		}
		return nil
	},
}
