package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/store"
	"github.com/jackzampolin/redpen/internal/types"
)

// chapterStatusView is one row of the status table.
type chapterStatusView struct {
	Number    int                 `json:"chapter_number" yaml:"chapter_number"`
	ID        string              `json:"chapter_id" yaml:"chapter_id"`
	Title     string              `json:"title,omitempty" yaml:"title,omitempty"`
	Status    types.ChapterStatus `json:"status" yaml:"status"`
	Error     string              `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

type statusView struct {
	Project  string              `json:"project" yaml:"project"`
	Counts   map[string]int      `json:"counts" yaml:"counts"`
	Chapters []chapterStatusView `json:"chapters" yaml:"chapters"`
}

var statusCmd = &cobra.Command{
	Use:   "status <chapters-dir>",
	Short: "Show per-chapter progress",
	Long: `Show the processing status of every chapter in a directory.

Examples:
  redpen status ./book
  redpen status ./book -o json`,
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
		states, err := svcs.Store.ListStatuses(cmd.Context(), proj.ID)
		if err != nil {
			return fmt.Errorf("list statuses: %w", err)
		}
		byID := make(map[string]store.ChapterState, len(states))
		for _, st := range states {
			byID[st.ChapterID] = st
		}

		view := statusView{Project: proj.ID, Counts: map[string]int{}}
		for _, ch := range proj.Chapters {
			row := chapterStatusView{Number: ch.Number, ID: ch.ID, Title: ch.Title, Status: types.StatusNotStarted}
			if st, ok := byID[ch.ID]; ok {
				row.Status = st.Status
				row.Error = st.Error
				if !st.UpdatedAt.IsZero() {
					t := st.UpdatedAt
					row.UpdatedAt = &t
				}
			}
			view.Counts[string(row.Status)]++
			view.Chapters = append(view.Chapters, row)
		}
		if IsStructuredOutput() {
			return Output(view)
		}

		color.New(color.Bold).Printf("Project %s (%d chapters)\n", proj.ID, len(proj.Chapters))
		for _, row := range view.Chapters {
			title := row.Title
			if title == "" {
				title = row.ID
			}
			fmt.Printf("  %3d  %-32s %s\n", row.Number, truncate(title, 32), chapterStatusColor(row.Status))
			if row.Error != "" {
				fmt.Printf("       %s\n", color.RedString(row.Error))
			}
		}
		fmt.Printf("\n%d completed, %d failed, %d pending\n",
			view.Counts[string(types.StatusCompleted)],
			view.Counts[string(types.StatusFailed)],
			len(proj.Chapters)-view.Counts[string(types.StatusCompleted)]-view.Counts[string(types.StatusFailed)])
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&projectFlag, "project", "", "project id (default: directory name)")
}

// chapterStatusColor colors a status for terminal output.
func chapterStatusColor(s types.ChapterStatus) string {
	switch s {
	case types.StatusCompleted:
		return color.GreenString(string(s))
	case types.StatusFailed:
		return color.RedString(string(s))
	case types.StatusInProgress, types.StatusQueued:
		return color.CyanString(string(s))
	default:
		return color.New(color.Faint).Sprint(string(s))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
