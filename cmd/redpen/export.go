package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/chapters"
	"github.com/jackzampolin/redpen/internal/store"
)

var exportOut string

type exportView struct {
	Project  string   `json:"project" yaml:"project"`
	Dir      string   `json:"dir" yaml:"dir"`
	Exported []string `json:"exported" yaml:"exported"`
	Skipped  []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export <chapters-dir>",
	Short: "Write the edited chapters",
	Long: `Reassemble every edited chapter and write it to the export directory.

Chapters without a saved result are skipped. The default destination is
the project's exports directory under the redpen home.

Examples:
  redpen export ./book
  redpen export ./book --out ./book-edited`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		proj, err := loadProject(svcs, args[0])
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = svcs.Home.ExportsDir(proj.ID)
		}

		view := exportView{Project: proj.ID, Dir: out}
		for _, ch := range proj.Chapters {
			res, err := svcs.Store.LoadResult(cmd.Context(), proj.ID, ch.ID)
			if errors.Is(err, store.ErrNotFound) {
				view.Skipped = append(view.Skipped, ch.ID)
				continue
			}
			if err != nil {
				return fmt.Errorf("load result for %s: %w", ch.ID, err)
			}
			path, err := chapters.Export(out, ch, res.Edited)
			if err != nil {
				return err
			}
			view.Exported = append(view.Exported, path)
		}

		if IsStructuredOutput() {
			return Output(view)
		}
		for _, p := range view.Exported {
			fmt.Printf("  %s %s\n", color.GreenString("✓"), p)
		}
		if len(view.Skipped) > 0 {
			color.Yellow("Skipped %d unedited chapters: %v", len(view.Skipped), view.Skipped)
		}
		fmt.Printf("Exported %d chapters to %s\n", len(view.Exported), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "destination directory (default: the project exports directory)")
	exportCmd.Flags().StringVar(&projectFlag, "project", "", "project id (default: directory name)")
}
