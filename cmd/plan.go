package cmd

import (
	"github.com/spf13/cobra"

	relbump "github.com/bcomnes/relbump/pkg"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the next version without changing anything",
		Long: `plan runs the read-only part of a release: it fetches the latest release,
computes the next version and checks that main has moved since that release.
The release tag is fetched from the remote only when it is missing locally;
an existing local tag is never overwritten.`,
		Example: `  relbump plan --bump minor`,
		Args:    cobra.NoArgs,
		RunE:    runPlan,
	}
	addBumpFlags(cmd)
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	bump, _ := cmd.Flags().GetString("bump")
	if _, err := relbump.ParseBumpKind(bump); err != nil {
		return err
	}
	bindProfileFlag(cmd)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	orch, err := buildOrchestrator(cfg, logger, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	plan, err := orch.Prepare(cmd.Context(), bump)
	if err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), plan)
	printf(cmd.OutOrStdout(), "Tag:         %s\n", plan.NextTag)
	return nil
}
