package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and open the database",
		Long: "Create the configuration directory with a default config.yaml, then\n" +
			"open the database, provisioning missing collections.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			if a.flags.jsonMode {
				return printJSON(a.stdout, map[string]any{
					"name":        h.Name(),
					"version":     h.Version(),
					"collections": h.Collections(),
				})
			}
			fmt.Fprintf(a.stdout, "Database %q ready at version %d (collections: %v)\n",
				h.Name(), h.Version(), h.Collections())
			return nil
		},
	}
}
