package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/pkg/recordstore"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

const modulePath = "github.com/mesh-intelligence/recordstore"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the recordstore version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return printJSON(a.stdout, map[string]any{
					"version":        recordstore.Version,
					"module":         modulePath,
					"schema_version": types.SchemaVersion,
				})
			}
			fmt.Fprintf(a.stdout, "recordstore v%s\nmodule: %s\nschema version: %d\n",
				recordstore.Version, modulePath, types.SchemaVersion)
			return nil
		},
	}
}
