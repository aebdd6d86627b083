package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newTargetInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "target-info <name>",
		Short: "Print the full definition of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			target, err := c.app.TargetInfo(root, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:       %s\n", target.Name.String())
			fmt.Fprintf(out, "kind:       %s\n", target.Kind)
			fmt.Fprintf(out, "priority:   %g\n", target.Priority)
			fmt.Fprintf(out, "working_dir: %s\n", target.WorkingDir)
			fmt.Fprintf(out, "command:    %v\n", target.Command)
			if len(target.Tags) > 0 {
				tags := make([]string, len(target.Tags))
				for i, tg := range target.Tags {
					tags[i] = tg.String()
				}
				fmt.Fprintf(out, "tags:       %v\n", tags)
			}
			if len(target.DependsOn) > 0 {
				deps := make([]string, len(target.DependsOn))
				for i, d := range target.DependsOn {
					deps[i] = d.String()
				}
				fmt.Fprintf(out, "depends_on: %v\n", deps)
			}
			if len(target.Outputs) > 0 {
				fmt.Fprintf(out, "outputs:    %v\n", target.Outputs)
			}
			if target.FailureRetries > 0 {
				fmt.Fprintf(out, "retries:    %d\n", target.FailureRetries)
			}
			fmt.Fprintf(out, "clean_on_rebuild:      %t\n", target.CleanOnRebuild)
			fmt.Fprintf(out, "disable_in_full_build: %t\n", target.DisableInFullBuild)
			return nil
		},
	}
}
