package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/registry"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <tenant> <image-path>",
	Short: "Recognize the faces in an image",
	Long: `Send an image to the recognition engine and resolve the matches back to
person records. Matches from other tenants are reported as foreign and
never expose the other tenant's data.

Example:
  face-registry recognize carrefour /tmp/snapshot.jpg`,
	Args: cobra.ExactArgs(2),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	tenantID := args[0]
	imagePath := args[1]

	cfg := config.Load()
	manager, eng, err := buildManager(cfg)
	if err != nil {
		return err
	}
	if !manager.Catalog().IsValid(tenantID) {
		return fmt.Errorf("unknown tenant %q", tenantID)
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("could not read image: %w", err)
	}

	faces, err := eng.Recognize(cmd.Context(), image)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}
	if len(faces) == 0 {
		fmt.Println("No faces found.")
		return nil
	}

	cache, err := manager.List(tenantID)
	if err != nil {
		return err
	}

	for i, face := range faces {
		fmt.Printf("Face %d:\n", i+1)
		if len(face.Matches) == 0 {
			fmt.Println("  no matches")
			continue
		}

		// Only the best candidate is resolved to a person; the rest are
		// shown as raw subject ids.
		best := face.Matches[0]
		res, err := manager.Resolve(best, tenantID, cache)
		switch {
		case errors.Is(err, registry.ErrUnresolvableSubject):
			fmt.Printf("  [%.2f] foreign subject\n", best.Similarity)
		case errors.Is(err, registry.ErrStaleSubject):
			fmt.Printf("  [%.2f] stale engine entry %s\n", best.Similarity, best.SubjectID)
		case err != nil:
			fmt.Printf("  [%.2f] could not resolve: %v\n", best.Similarity, err)
		case res.Tenant.ID != tenantID:
			// Another tenant's person; print the similarity only.
			fmt.Printf("  [%.2f] foreign subject\n", best.Similarity)
		default:
			fmt.Printf("  [%.2f] %s <%s> (%s, tenant %s)\n",
				res.Similarity, res.Person.Name, res.Person.Email, res.PersonID, res.Tenant.ID)
		}
		for _, match := range face.Matches[1:] {
			fmt.Printf("  [%.2f] candidate %s\n", match.Similarity, match.SubjectID)
		}
	}
	return nil
}
