package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newFindTargetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find-target <pattern>",
		Short: "Resolve a target name, tag, output path, or /regex/ to matching target names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			names, err := c.app.FindTarget(root, args[0])
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
