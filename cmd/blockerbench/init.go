package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/categories.yaml
var categoriesTemplate embed.FS

// categoriesFileName is the default category file name.
const categoriesFileName = "website_by_type.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter category file",
		Long: `Init creates a starter website category file in the current directory.

The category file maps category names to lists of origin domains and is
consumed by 'blockerbench score --categories' to produce a per-category
score breakdown. The generated file documents the format and includes
example categories to edit.

Examples:
  # Create website_by_type.yaml in the current directory
  blockerbench init

  # Create the category file at a specific path
  blockerbench init -o categories/news.yaml

  # Force overwrite an existing file
  blockerbench init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", categoriesFileName,
		"Output file path for the category file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing category file")

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

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("category file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := categoriesTemplate.ReadFile("templates/categories.yaml")
	if err != nil {
		return fmt.Errorf("failed to read category template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write category file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write category file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created category file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to group origin domains into categories such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - news sites")
	fmt.Fprintln(cmd.OutOrStdout(), "  - shopping sites")
	fmt.Fprintln(cmd.OutOrStdout(), "  - social networks")

	return nil
}
