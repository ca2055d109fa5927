package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var retryFailed bool

var retryCmd = &cobra.Command{
	Use:   "retry <chapters-dir> [chapter...]",
	Short: "Reset chapters so the next run edits them again",
	Long: `Reset chapters to not_started so the next 'redpen run' picks them up.

Give chapter ids or numbers, or --failed to reset every failed chapter.

Examples:
  redpen retry ./book --failed
  redpen retry ./book ch03 7`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		proj, err := loadProject(svcs, args[0])
		if err != nil {
			return err
		}
		refs := args[1:]
		if retryFailed == (len(refs) > 0) {
			return errors.New("give either chapter ids or --failed")
		}

		ctx := cmd.Context()
		var reset []string
		if retryFailed {
			reset, err = svcs.JobManager.RetryFailed(ctx, proj.ID)
			if err != nil {
				return err
			}
		} else {
			for _, ref := range refs {
				ch, err := proj.chapter(ref)
				if err != nil {
					return err
				}
				if err := svcs.JobManager.Retry(ctx, proj.ID, ch.ID); err != nil {
					return fmt.Errorf("reset %s: %w", ch.ID, err)
				}
				reset = append(reset, ch.ID)
			}
		}

		if IsStructuredOutput() {
			return Output(map[string]any{"project": proj.ID, "reset": reset})
		}
		if len(reset) == 0 {
			fmt.Println("Nothing to reset.")
			return nil
		}
		for _, id := range reset {
			fmt.Printf("  %s %s\n", color.YellowString("↺"), id)
		}
		fmt.Printf("Reset %d chapters. Run 'redpen run %s' to edit them.\n", len(reset), args[0])
		return nil
	},
}

func init() {
	retryCmd.Flags().BoolVar(&retryFailed, "failed", false, "reset every failed chapter")
	retryCmd.Flags().StringVar(&projectFlag, "project", "", "project id (default: directory name)")
}
