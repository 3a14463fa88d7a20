package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/pagerank.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new pagerank configuration file",
		Long: `Initialize creates a new .pagerank configuration file in the current directory.

The generated file includes:
- Default ranking parameters applied to every corpus
- Commented examples of per-corpus overrides
- Documentation for all available options

Examples:
  # Create .pagerank in current directory
  pagerank init

  # Create config file at a specific path
  pagerank init -o myconfig.yaml

  # Force overwrite existing file
  pagerank init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/pagerank.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-corpus settings such as:")
	fmt.Fprintln(out, "  - Damping factor and sample count")
	fmt.Fprintln(out, "  - A fixed random seed for reproducible runs")
	fmt.Fprintln(out, "  - File extensions and name patterns to ignore")

	return nil
}
