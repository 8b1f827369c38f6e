package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func newDeleteCmd(a *app) *cobra.Command {
	var (
		collection string
		yes        bool
	)
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record after confirmation and list the rest",
		Long: "Delete asks for confirmation, removes the record, and lists the\n" +
			"remaining records. Deleting a missing key succeeds.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), a.stdout, fmt.Sprintf("Delete %s/%d?", collection, key))
				if err != nil {
					return sysError(fmt.Errorf("read confirmation: %w", err))
				}
				if !ok {
					fmt.Fprintln(a.stdout, "Aborted")
					return nil
				}
			}

			h, err := a.openHandle(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeHandle(h)

			if err := h.Delete(cmd.Context(), key, collection); err != nil {
				return classify(err)
			}
			if !a.flags.jsonMode {
				fmt.Fprintf(a.stdout, "Deleted %s/%d\n", collection, key)
			}
			return a.list(cmd, h, collection)
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", types.UserCollection, "collection name")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks question on w and reads a yes/no answer from r. Anything but
// "y" or "yes" declines, as does end of input.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	fmt.Fprintln(w)
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
