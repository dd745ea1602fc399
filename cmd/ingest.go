package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <manifest-path>",
	Short: "Bulk-register persons from a batch manifest",
	Long: `Register a batch of persons described by an upload_config.json manifest.

The manifest names the target tenant, the folder holding the face images,
and one entry per person. Items are processed independently: a failed item
is reported and the batch continues.

Example:
  face-registry ingest /data/batches/carrefour/upload_config.json
  face-registry ingest --setup carrefour ./upload_config.json  # write a starter manifest`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("setup", "", "Write an example manifest for the given tenant and exit")
	ingestCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

// confirm asks the user to proceed; anything but y/yes aborts.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func newIngestBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Registering"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("persons"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func runIngest(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]

	if tenantID := mustGetString(cmd, "setup"); tenantID != "" {
		if err := ingest.WriteExampleManifest(manifestPath, tenantID); err != nil {
			return err
		}
		fmt.Printf("Example manifest written to %s\n", manifestPath)
		return nil
	}

	manifest, err := ingest.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	cfg := config.Load()
	manager, _, err := buildManager(cfg)
	if err != nil {
		return err
	}

	imageDir := manifest.ImageDir(manifestPath)
	fmt.Printf("Tenant:  %s\n", manifest.Client)
	fmt.Printf("Images:  %s\n", imageDir)
	fmt.Printf("Persons: %d\n\n", len(manifest.Persons))

	if !mustGetBool(cmd, "yes") && !confirm("Register this batch?") {
		fmt.Println("Aborted.")
		return nil
	}

	bar := newIngestBar(len(manifest.Persons))

	pipeline := ingest.New(manager)
	pipeline.OnProgress = func(done, total int, result ingest.ItemResult) {
		bar.Add(1)
	}

	report, err := pipeline.Run(cmd.Context(), manifest.Client, imageDir, manifest.Persons)
	if err != nil {
		return err
	}
	fmt.Println()

	for _, result := range report.Results {
		if result.Outcome == ingest.Success {
			continue
		}
		name := result.Item.Name
		if name == "" {
			name = filepath.Base(result.Item.ImageFile)
		}
		fmt.Printf("Failed: %s (%s): %s\n", name, result.Outcome, result.Detail)
	}

	fmt.Printf("\nDone! Registered %d of %d person(s) for '%s'\n", report.Succeeded, report.Total, manifest.Client)
	if report.Failed > 0 {
		return fmt.Errorf("%d item(s) failed", report.Failed)
	}
	return nil
}
