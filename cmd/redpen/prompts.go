package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/prompts/copyedit"
)

// promptView describes one prompt and where it resolves from.
type promptView struct {
	Key          string `json:"key" yaml:"key"`
	Description  string `json:"description" yaml:"description"`
	Hash         string `json:"hash" yaml:"hash"`
	OverridePath string `json:"override_path" yaml:"override_path"`
	Overridden   bool   `json:"overridden" yaml:"overridden"`
}

var promptsProject string

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect the copy-editing prompts",
	Long: `List the system prompts for each editing style.

A prompt is overridden per project by placing a file at its override path;
the file is re-read before every run.`,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts and their override paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		r := resolverFor(svcs, promptsProject)
		var views []promptView
		for _, p := range r.AllEmbedded() {
			v := promptView{Key: p.Key, Description: p.Description, Hash: p.Hash, OverridePath: r.OverridePath(p.Key)}
			if v.OverridePath != "" && fileExists(v.OverridePath) {
				v.Overridden = true
				if res, err := r.Resolve(p.Key); err == nil {
					v.Hash = res.Hash
				}
			}
			views = append(views, v)
		}
		if IsStructuredOutput() {
			return Output(views)
		}
		for _, v := range views {
			state := color.New(color.Faint).Sprint("embedded")
			if v.Overridden {
				state = color.YellowString("override")
			}
			fmt.Printf("%s [%s] %s\n", color.New(color.Bold).Sprint(v.Key), state, shortHash(v.Hash))
			fmt.Printf("    %s\n    %s\n", v.Description, v.OverridePath)
		}
		return nil
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <style>",
	Short: "Print the system prompt a run would use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		_, p, err := systemPrompt(svcs, promptsProject, args[0])
		if err != nil {
			return err
		}
		if IsStructuredOutput() {
			return Output(p)
		}
		fmt.Print(p.Text)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{promptsListCmd, promptsShowCmd} {
		c.Flags().StringVar(&promptsProject, "project", "default", "project whose overrides apply")
	}
	for _, s := range copyedit.Styles {
		promptsShowCmd.ValidArgs = append(promptsShowCmd.ValidArgs, string(s))
	}
	promptsCmd.AddCommand(promptsListCmd, promptsShowCmd)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
