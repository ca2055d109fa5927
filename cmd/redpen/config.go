package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/config"
	"github.com/jackzampolin/redpen/internal/home"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage redpen configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file to the home directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		path := h.ConfigPath()
		if h.ConfigExists() && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		color.Green("Wrote %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show the effective configuration",
	Long: `Show every configuration key with its effective value, after the
config file and REDPEN_* environment overrides are applied.

Secrets are masked unless they are ${ENV_VAR} references.

Examples:
  redpen config show
  redpen config show llm.model`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		entries := config.Effective(svcs.Config.Viper())
		if len(args) == 1 {
			if _, err := config.DescribeKey(args[0]); err != nil {
				return err
			}
			filtered := entries[:0]
			for _, e := range entries {
				if e.Key == args[0] {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}
		for i := range entries {
			entries[i].Value = maskSecret(entries[i].Key, entries[i].Value)
		}

		if IsStructuredOutput() {
			return Output(entries)
		}
		if f := svcs.Config.ConfigFile(); f != "" {
			fmt.Printf("Config file: %s\n\n", f)
		} else {
			fmt.Printf("No config file; using defaults (run 'redpen config init')\n\n")
		}
		key := color.New(color.Bold)
		for _, e := range entries {
			fmt.Printf("%s = %v\n", key.Sprint(e.Key), e.Value)
			if e.Description != "" {
				fmt.Printf("    %s\n", color.New(color.Faint).Sprint(e.Description))
			}
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func maskSecret(key string, value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	if !strings.HasSuffix(key, "api_key") && !strings.HasSuffix(key, "password") {
		return value
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return s
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
