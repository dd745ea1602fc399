package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-registry",
	Short: "A tenant-scoped face registry backed by CompreFace",
	Long: `Face Registry manages person rosters for a fixed set of tenants and keeps
them in sync with a shared CompreFace recognition service. Every face is
registered under a tenant-namespaced subject id, so recognition results can
always be traced back to the tenant that owns them.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
