package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	relbump "github.com/bcomnes/relbump/pkg"
)

var errNotesUnsupported = fmt.Errorf("%w: release notes are generated by GitHub, --notes is not supported", relbump.ErrInvalidInput)

func addBumpFlags(cmd *cobra.Command) {
	cmd.Flags().String("bump", "", "bump kind: major or minor")
	cmd.Flags().String("profile", "", "release profile: go or java (default go)")
}

func bindProfileFlag(cmd *cobra.Command) {
	if f := cmd.Flags().Lookup("profile"); f != nil && f.Changed {
		viper.Set("profile.name", f.Value.String())
	}
}

func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Bump the version, push it and publish a release",
		Example: `  relbump release --bump minor
  relbump release --bump major --profile go --dir ./sdk
  relbump release --bump minor --dry-run`,
		Args: cobra.NoArgs,
		RunE: runRelease,
	}
	addBumpFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "compute the release and list the files that would change, without writing anything (local tags are kept)")
	cmd.Flags().String("notes", "", "unsupported: release notes are always generated")
	return cmd
}

func runRelease(cmd *cobra.Command, args []string) error {
	bump, _ := cmd.Flags().GetString("bump")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	notes, _ := cmd.Flags().GetString("notes")

	if _, err := relbump.ParseBumpKind(bump); err != nil {
		return err
	}
	if notes != "" {
		return errNotesUnsupported
	}
	bindProfileFlag(cmd)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	orch, err := buildOrchestrator(cfg, logger, cmd.ErrOrStderr(), !dryRun)
	if err != nil {
		return err
	}
	orch.DryRun = dryRun

	res, err := orch.Run(cmd.Context(), bump)
	if res != nil && len(res.UpdatedFiles) > 0 && err != nil {
		var stepErr *relbump.StepError
		if errors.As(err, &stepErr) && stepErr.Step != relbump.StepBumpFiles {
			printFiles(cmd.ErrOrStderr(), "Files already changed:", res.UpdatedFiles)
		}
	}
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res *relbump.Result) {
	if res.DryRun {
		printf(w, "Dry run complete, no files were modified.\n")
	} else {
		printf(w, "Version bump successful!\n")
	}
	printPlan(w, res.Plan)
	if res.DryRun {
		printFiles(w, "Files that would be updated:", res.UpdatedFiles)
		return
	}
	printFiles(w, "Files updated:", res.UpdatedFiles)
	printf(w, "Commit:      %s\n", res.Commit)
	printf(w, "Released:    %s\n", res.NextTag)
	if res.Notified {
		printf(w, "Notified:    %s\n", res.ModulePath())
	}
}

func printPlan(w io.Writer, plan relbump.Plan) {
	printf(w, "Old Version: %s\n", plan.PreviousVersion)
	printf(w, "New Version: %s\n", plan.NextVersion)
	printf(w, "Bump Type:   %s\n", plan.Kind)
	if plan.Module != "" {
		printf(w, "Module:      %s\n", plan.ModulePath())
	}
}

func printFiles(w io.Writer, header string, files []string) {
	if len(files) == 0 {
		return
	}
	printf(w, "%s\n", header)
	for _, f := range files {
		printf(w, "  %s\n", f)
	}
}
