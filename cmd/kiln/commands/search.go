package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <substring>",
		Short: "List targets whose name or output path contains a substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			names, err := c.app.Search(root, args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
