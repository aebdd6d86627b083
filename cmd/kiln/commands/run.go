package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.kiln.build/kiln/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Build the given targets, tags, or patterns",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parallelism, _ := cmd.Flags().GetInt("jobs")
			parallel, _ := cmd.Flags().GetBool("parallel")
			keepGoing, _ := cmd.Flags().GetBool("keep-going")
			rebuild, _ := cmd.Flags().GetBool("rebuild")
			rebuildIgnoreDeps, _ := cmd.Flags().GetBool("rebuild-ignore-deps")
			ignoreDeps, _ := cmd.Flags().GetBool("ignore-deps")
			root, _ := cmd.Flags().GetString("root")

			return c.app.Run(cmd.Context(), args, app.RunOptions{
				Parallelism:       parallelism,
				Parallel:          parallel,
				KeepGoing:         keepGoing,
				Rebuild:           rebuild,
				RebuildIgnoreDeps: rebuildIgnoreDeps,
				IgnoreDeps:        ignoreDeps,
				Root:              root,
			})
		},
	}
	cmd.Flags().IntP("jobs", "j", 0, "Worker pool size (default: one per CPU, see KILN_MAX_WORKERS/KILN_WORKERS_PER_CPU)")
	cmd.Flags().BoolP("parallel", "J", true, "Build independent targets in parallel with the automatic worker count (--parallel=false runs one worker)")
	cmd.Flags().Bool("keep-going", false, "Keep building independent targets after a failure")
	cmd.Flags().Bool("rebuild", false, "Clean and force a rebuild of the selected targets")
	cmd.Flags().Bool("rebuild-ignore-deps", false, "Force a rebuild of exactly the selected targets, without cleaning")
	cmd.Flags().Bool("ignore-deps", false, "Build exactly the selected targets, without pulling in their transitive dependencies")
	cmd.Flags().SetNormalizeFunc(normalizeRid)
	return cmd
}

// normalizeRid accepts --rid as the documented short alias for
// --rebuild-ignore-deps.
func normalizeRid(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "rid" {
		name = "rebuild-ignore-deps"
	}
	return pflag.NormalizedName(name)
}
