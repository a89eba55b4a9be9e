package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KilimcininKorOglu/sonda/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sonda %s\n", version)
		fmt.Fprintf(out, "  Commit: %s\n", commit)
		fmt.Fprintf(out, "  Built:  %s\n", date)
		fmt.Fprintf(out, "  Config: %s\n", config.GetConfigPath())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the sonda configuration file.

Commands:
  sonda config --init     Create default config file
  sonda config --show     Show the configuration in effect
  sonda config --example  Print an annotated example file
  sonda config --path     Show config file path`,
	RunE: runConfig,
}

var (
	configInit    bool
	configShow    bool
	configExample bool
	configPath    bool
)

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Create default config file")
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show current configuration")
	configCmd.Flags().BoolVar(&configExample, "example", false, "Print an annotated example config")
	configCmd.Flags().BoolVar(&configPath, "path", false, "Show config file path")
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch {
	case configPath:
		path := cfgPath
		if path == "" {
			path = config.GetConfigPath()
		}
		fmt.Fprintln(out, path)
		return nil

	case configInit:
		path := config.GetConfigPath()

		// Check if file already exists
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}

		if err := config.WriteExample(path); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}

		fmt.Fprintf(out, "Created config file: %s\n", path)
		fmt.Fprintln(out, "\nEdit this file to customize defaults.")
		return nil

	case configShow:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		if cfgPath != "" {
			fmt.Fprintf(out, "# %s\n", cfgPath)
		} else {
			fmt.Fprintln(out, "# built-in defaults")
		}
		_, err = out.Write(data)
		return err

	case configExample:
		fmt.Fprint(out, config.GenerateExample())
		return nil
	}

	// No flag specified, show help
	return cmd.Help()
}
