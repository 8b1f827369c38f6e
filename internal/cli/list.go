package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/internal/store"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [collection]",
		Short: "List every record of a collection in key order",
		Long: "List prints every record of the collection (default: user) in\n" +
			"ascending key order.\n\n" +
			"Example:\n" +
			"  recordstore list\n" +
			"  recordstore list user --json",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := types.UserCollection
			if len(args) == 1 {
				collection = args[0]
			}

			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			return a.list(cmd, h, collection)
		},
	}
}

// list scans collection and prints it.
func (a *app) list(cmd *cobra.Command, h *store.Handle, collection string) error {
	records, err := h.ScanAll(cmd.Context(), collection)
	if err != nil {
		return classify(err)
	}
	return a.printRecords(a.stdout, collection, records)
}
