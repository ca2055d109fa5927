package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/providers"
)

var testConnectionTimeout time.Duration

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that the configured backend answers",
	Long: `Verify the configured backend: list models where supported, then send
one tiny completion request.

Examples:
  redpen test-connection
  redpen test-connection --timeout 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		cfg := svcs.Config.Get()
		ctx, cancel := context.WithTimeout(cmd.Context(), testConnectionTimeout)
		defer cancel()

		fmt.Printf("Backend %s, model %s\n", svcs.Generator.Name(), cfg.LLM.Model)
		if hc, ok := svcs.Generator.(providers.HealthChecker); ok {
			if err := hc.HealthCheck(ctx); err != nil {
				color.Red("  ✗ health check: %v", err)
				return err
			}
			color.Green("  ✓ health check")
		}

		res, err := svcs.Generator.Generate(ctx, &providers.GenerateRequest{
			SystemPrompt: "You are a connectivity check.",
			UserContent:  "Reply with the single word OK.",
			Model:        cfg.LLM.Model,
			MaxTokens:    5,
		})
		if err != nil {
			color.Red("  ✗ completion: %v", err)
			return err
		}
		if IsStructuredOutput() {
			return Output(res)
		}
		color.Green("  ✓ completion in %s (%d tokens): %q", res.ExecutionTime.Round(time.Millisecond), res.TotalTokens, res.Content)
		return nil
	},
}

func init() {
	testConnectionCmd.Flags().DurationVar(&testConnectionTimeout, "timeout", 30*time.Second, "overall timeout for the checks")
}
