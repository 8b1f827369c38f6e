package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one record by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}

			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			rec, found, err := h.GetByID(cmd.Context(), key, collection)
			if err != nil {
				return classify(err)
			}
			if !found {
				return userErrorf("no record %s/%d", collection, key)
			}
			if a.flags.jsonMode {
				return printJSON(a.stdout, rec)
			}
			fmt.Fprintln(a.stdout, formatRecord(rec, keyPath(collection)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", types.UserCollection, "collection name")
	return cmd
}

func newExistsCmd(a *app) *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "exists <id>",
		Short: "Report whether a record exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}

			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			ok, err := h.Exists(cmd.Context(), key, collection)
			if err != nil {
				return classify(err)
			}
			if a.flags.jsonMode {
				return printJSON(a.stdout, map[string]bool{"exists": ok})
			}
			fmt.Fprintln(a.stdout, ok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", types.UserCollection, "collection name")
	return cmd
}
