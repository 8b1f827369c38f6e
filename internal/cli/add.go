package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		u  types.User
		id int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a user and list all users",
		Long: "Add saves a user record. Without --id the store assigns the key;\n" +
			"with --id an existing user is replaced and a missing one is created\n" +
			"under that key.\n\n" +
			"Example:\n" +
			"  recordstore add --name Ana --age 30 --profession Engineer\n" +
			"  recordstore add --id 1 --name Ana --age 31 --profession Architect",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if u.Name == "" {
				return userErrorf("--name is required")
			}
			if cmd.Flags().Changed("id") {
				key, err := checkKey(id)
				if err != nil {
					return err
				}
				u.ID = key
			}

			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			key, err := h.Upsert(cmd.Context(), u.ToRecord(), types.UserCollection)
			if err != nil {
				return classify(err)
			}
			if !a.flags.jsonMode {
				fmt.Fprintf(a.stdout, "Saved %s/%d\n", types.UserCollection, key)
			}
			return a.list(cmd, h, types.UserCollection)
		},
	}
	cmd.Flags().StringVar(&u.Name, "name", "", "user name")
	cmd.Flags().StringVar(&u.Age, "age", "", "user age")
	cmd.Flags().StringVar(&u.Profession, "profession", "", "user profession")
	cmd.Flags().Int64Var(&id, "id", 0, "key of the user to replace or create")
	return cmd
}
