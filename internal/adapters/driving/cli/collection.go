package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

var (
	collectionBoost   float64
	collectionInclude []string
	collectionExclude []string
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage document collections",
	Long:  `Commands for registering, listing and removing document collections.`,
}

var collectionAddCmd = &cobra.Command{
	Use:   "add [name] [path]",
	Short: "Register a new collection",
	Long: `Registers a directory as a named collection. The collection is
empty until an index pass runs over it.`,
	Args: cobra.ExactArgs(2),
	RunE: runCollectionAdd,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered collections",
	RunE:  runCollectionList,
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a collection and its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionRemove,
}

func init() {
	collectionAddCmd.Flags().Float64Var(&collectionBoost, "boost", 1.0, "scoring multiplier for the collection")
	collectionAddCmd.Flags().StringSliceVar(&collectionInclude, "include", nil, "glob masks selecting content (repeatable)")
	collectionAddCmd.Flags().StringSliceVar(&collectionExclude, "exclude", nil, "glob masks excluding content (repeatable)")

	collectionCmd.AddCommand(collectionAddCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionRemoveCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	col := &domain.Collection{
		Name:    args[0],
		Locator: args[1],
		Kind:    "filesystem",
		Include: collectionInclude,
		Exclude: collectionExclude,
		Boost:   collectionBoost,
	}

	if err := collectionService.Create(cmd.Context(), col); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	cmd.Printf("Collection %q registered for %s.\n", col.Name, col.Locator)
	cmd.Printf("Run 'sercha-engine index %s' to index it.\n", col.Name)
	return nil
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	cols, err := collectionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if len(cols) == 0 {
		cmd.Println("No collections registered.")
		return nil
	}

	for i := range cols {
		col := &cols[i]
		cmd.Printf("  %s  %s (%s, boost %.2f)\n", col.Name, col.Locator, col.Kind, col.EffectiveBoost())
		if len(col.Include) > 0 {
			cmd.Printf("      include: %v\n", col.Include)
		}
		if len(col.Exclude) > 0 {
			cmd.Printf("      exclude: %v\n", col.Exclude)
		}
	}
	return nil
}

func runCollectionRemove(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	if err := collectionService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove collection: %w", err)
	}

	cmd.Printf("Collection %q removed.\n", args[0])
	return nil
}
