package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/tokens"
)

var planStyle string

// batchView is the structured form of one planned batch.
type batchView struct {
	Index    int      `json:"index" yaml:"index"`
	Chapters []string `json:"chapters" yaml:"chapters"`
	Tokens   int      `json:"tokens" yaml:"tokens"`
}

type planView struct {
	Project       string      `json:"project" yaml:"project"`
	Style         string      `json:"style" yaml:"style"`
	Budget        int         `json:"budget" yaml:"budget"`
	Chapters      int         `json:"chapters" yaml:"chapters"`
	Batches       []batchView `json:"batches" yaml:"batches"`
	Warnings      []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	EstimatedCost float64     `json:"estimated_cost_usd" yaml:"estimated_cost_usd"`
}

var planCmd = &cobra.Command{
	Use:   "plan <chapters-dir>",
	Short: "Show how chapters would be batched",
	Long: `Load a directory of chapter files and show the batches a run would send.

Chapters are grouped in order, greedily, so that each batch fits the
model's context window minus the system prompt and a safety margin.
A chapter larger than the budget is sent alone and reported as a warning.

Examples:
  redpen plan ./book
  redpen plan ./book --style heavy -o json`,
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

		cfg := svcs.Config.Get()
		style := cfg.Processing.Style
		if planStyle != "" {
			style = planStyle
		}
		s, prompt, err := systemPrompt(svcs, proj.ID, style)
		if err != nil {
			return err
		}
		plan, err := planBatches(svcs, proj.Chapters, prompt.Text)
		if err != nil {
			return err
		}

		view := planView{
			Project:  proj.ID,
			Style:    string(s),
			Budget:   plan.Budget,
			Chapters: plan.Chapters(),
		}
		inputTokens := 0
		for _, b := range plan.Batches {
			view.Batches = append(view.Batches, batchView{Index: b.Index, Chapters: b.ChapterIDs(), Tokens: b.Tokens()})
			inputTokens += b.Tokens() + svcs.Estimator.CountMessages(prompt.Text, "")
		}
		for _, w := range plan.Warnings {
			view.Warnings = append(view.Warnings, w.String())
		}
		// Edit commands are short; assume output at a tenth of the input.
		view.EstimatedCost = tokens.EstimateCost(cfg.LLM.Model, inputTokens, inputTokens/10)

		if IsStructuredOutput() {
			return Output(view)
		}

		bold := color.New(color.Bold)
		bold.Printf("Project %s", proj.ID)
		fmt.Printf(" (%d chapters, style %s)\n", view.Chapters, view.Style)
		fmt.Printf("Budget: %d tokens per batch\n\n", plan.Budget)
		fmt.Print(plan.Summary())
		for _, w := range view.Warnings {
			color.Yellow("warning: %s", w)
		}
		fmt.Printf("\n%d batches, estimated cost $%.4f\n", len(plan.Batches), view.EstimatedCost)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planStyle, "style", "", "editing style: light, moderate or heavy (default from config)")
	planCmd.Flags().StringVar(&projectFlag, "project", "", "project id (default: directory name)")
}
