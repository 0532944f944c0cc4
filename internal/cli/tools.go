package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewToolsCommand creates the tools command.
func NewToolsCommand(rootOpts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:           "tools",
		Short:         "List the registered tools",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			mesh, err := newMesh(cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer mesh.Close()

			if asJSON {
				type toolInfo struct {
					Name        string         `json:"name"`
					Description string         `json:"description"`
					InputSchema map[string]any `json:"input_schema"`
				}
				infos := make([]toolInfo, 0)
				for _, def := range mesh.Tools() {
					infos = append(infos, toolInfo{
						Name:        def.Name,
						Description: def.Description,
						InputSchema: def.InputSchema,
					})
				}
				out, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			for _, def := range mesh.Tools() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", def.Name, def.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit tool definitions as JSON")

	return cmd
}
