package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/chitose/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default chitose config",
	Long: `Write a default configuration to the current directory.

This creates:
  - .chitose.yaml        - Configuration file with default settings
  - example.schema.json  - Example JSON Schema for --schema

Examples:
  chitose init
  chitose init --force`,
	Args: usageArgs(cobra.NoArgs),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": {"type": "integer"},
    "name": {"type": "string"}
  }
}
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	schemaFile := filepath.Join(cwd, "example.schema.json")

	if !forceInit {
		for _, f := range []string{configFile, schemaFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(schemaFile, []byte(exampleSchema), 0644); err != nil {
		return fmt.Errorf("failed to create example schema: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", schemaFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nchitose config initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Try 'chitose get https://httpbin.org/get -v'.\n")

	return nil
}
