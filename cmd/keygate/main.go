// Package main is the entry point for the KeyGate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keygate",
	Short: "KeyGate license and policy integrity CLI",
	Long: `Operator tooling for the KeyGate trust core.
Checks license status, signs and verifies policy manifests, and shows
the per-tool limits a tier unlocks.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
