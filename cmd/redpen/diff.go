package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/diff"
	"github.com/jackzampolin/redpen/internal/store"
)

var diffContext int

var diffCmd = &cobra.Command{
	Use:   "diff <chapters-dir> <chapter>",
	Short: "Review the edits made to one chapter",
	Long: `Print a unified diff between a chapter's original and edited lines.

The chapter may be given by id (file name without extension) or number.
Edits the applier had to skip are listed after the diff.

Examples:
  redpen diff ./book ch03
  redpen diff ./book 3 --context 1
  redpen diff ./book 3 -o json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		proj, err := loadProject(svcs, args[0])
		if err != nil {
			return err
		}
		ch, err := proj.chapter(args[1])
		if err != nil {
			return err
		}
		res, err := svcs.Store.LoadResult(cmd.Context(), proj.ID, ch.ID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("chapter %s has not been edited yet; run 'redpen run %s'", ch.ID, args[0])
		}
		if err != nil {
			return err
		}

		if IsStructuredOutput() {
			rec := diff.Compute(res.Original, res.Edited)
			return Output(map[string]any{
				"chapter_id": res.ChapterID,
				"counts":     res.Counts,
				"stats":      rec.Stats,
				"hunks":      diff.Hunks(rec, diffContext),
				"issues":     res.Issues,
				"warnings":   res.Warnings,
			})
		}

		text, err := diff.Unified(res.Original, res.Edited, diffContext)
		if err != nil {
			return err
		}
		if text == "" {
			color.Green("No changes to chapter %d (%s)", res.ChapterNumber, res.ChapterID)
		}
		for _, line := range strings.SplitAfter(text, "\n") {
			switch {
			case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				color.New(color.Bold).Print(line)
			case strings.HasPrefix(line, "@@"):
				color.New(color.FgCyan).Print(line)
			case strings.HasPrefix(line, "+"):
				color.New(color.FgGreen).Print(line)
			case strings.HasPrefix(line, "-"):
				color.New(color.FgRed).Print(line)
			default:
				fmt.Print(line)
			}
		}

		fmt.Printf("\n%d replaced, %d inserted, %d deleted (%d edits applied)\n",
			res.Diff.Replaced, res.Diff.Inserted, res.Diff.Deleted, res.Counts.Total())
		for _, issue := range res.Issues {
			color.Yellow("skipped: %s", issue)
		}
		for _, w := range res.Warnings {
			color.Yellow("warning: %s", w)
		}
		return nil
	},
}

func init() {
	diffCmd.Flags().IntVarP(&diffContext, "context", "U", diff.DefaultContext, "unchanged lines shown around each change")
	diffCmd.Flags().StringVar(&projectFlag, "project", "", "project id (default: directory name)")
}
