package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/internal/jsonl"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write every record of a collection to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			records, err := h.ScanAll(cmd.Context(), collection)
			if err != nil {
				return classify(err)
			}
			if err := jsonl.WriteFile(args[0], records); err != nil {
				return sysError(fmt.Errorf("export %s: %w", collection, err))
			}
			if a.flags.jsonMode {
				return printJSON(a.stdout, map[string]any{"collection": collection, "exported": len(records)})
			}
			fmt.Fprintf(a.stdout, "Exported %d records from %s to %s\n", len(records), collection, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", types.UserCollection, "collection name")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert every record of a JSONL file into a collection",
		Long: "Import upserts each line of the file. Records with a key replace or\n" +
			"create that key; records without one get a new key. Lines that are not\n" +
			"JSON objects are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, skipped, err := jsonl.ReadFile(args[0])
			if err != nil {
				return userError(err)
			}

			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			for i, rec := range records {
				if _, err := h.Upsert(cmd.Context(), rec, collection); err != nil {
					return classify(fmt.Errorf("record %d: %w", i+1, err))
				}
			}
			if a.flags.jsonMode {
				return printJSON(a.stdout, map[string]any{"collection": collection, "imported": len(records), "skipped": skipped})
			}
			fmt.Fprintf(a.stdout, "Imported %d records into %s (%d skipped)\n", len(records), collection, skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", types.UserCollection, "collection name")
	return cmd
}
