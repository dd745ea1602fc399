package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List the configured tenants",
	RunE:  runTenants,
}

func init() {
	rootCmd.AddCommand(tenantsCmd)
}

func runTenants(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	tenants := catalog.List()
	fmt.Printf("Found %d tenant(s):\n", len(tenants))
	for _, t := range tenants {
		printTenant(t)
	}
	return nil
}

func printTenant(t tenant.Tenant) {
	fmt.Printf("  %-16s %s\n", t.ID, t.Name)
}
