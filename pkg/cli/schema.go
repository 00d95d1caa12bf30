package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/config"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for script files",
		Long: `Print the JSON Schema (draft 2020-12) that script files are validated
against. Point your editor's YAML or JSON language server at it for completion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.SchemaJSON())
			return err
		},
	}
}
