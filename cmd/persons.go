package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/registry"
)

var personsCmd = &cobra.Command{
	Use:   "persons <tenant>",
	Short: "List a tenant's registered persons",
	Long: `List the persons registered for a tenant. The --query filter matches
name, email and phone, ignoring case and diacritics.

Example:
  face-registry persons carrefour
  face-registry persons carrefour --query joao`,
	Args: cobra.ExactArgs(1),
	RunE: runPersons,
}

func init() {
	rootCmd.AddCommand(personsCmd)

	personsCmd.Flags().StringP("query", "q", "", "Filter persons by name, email or phone")
}

func runPersons(cmd *cobra.Command, args []string) error {
	tenantID := args[0]

	cfg := config.Load()
	manager, _, err := buildManager(cfg)
	if err != nil {
		return err
	}

	doc, err := manager.List(tenantID)
	if err != nil {
		return err
	}

	if query := mustGetString(cmd, "query"); query != "" {
		doc = registry.FilterDocument(doc, query)
	}

	persons := make([]registry.Person, 0, len(doc))
	for id, p := range doc {
		persons = append(persons, registry.Person{ID: id, Person: p})
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].Name < persons[j].Name })

	fmt.Printf("Found %d person(s) for tenant '%s':\n", len(persons), tenantID)
	for _, p := range persons {
		fmt.Printf("  %s  %-24s %-28s %s\n", p.ID, p.Name, p.Email, p.Phone)
	}
	return nil
}
