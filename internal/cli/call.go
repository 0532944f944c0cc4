package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Payload string
}

// NewCallCommand creates the call command, a one-shot dispatch useful for
// exercising the tool surface without a protocol client.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <tool-name>",
		Short: "Dispatch a single tool call and print the envelope",
		Long: `Dispatch a single tool call against an in-process mesh and print the
result envelope as JSON.

Sessions do not outlive the process, so calls that need one are mostly
useful in scripts that create, use and close a model in sequence inside
an MCP client. For ad-hoc checks, ping and create_cycle_model work
standalone.

Example:
  cyclemesh call create_cycle_model --payload '{"cycle_type":"turbofan","mode":"design"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Payload, "payload", "{}", "tool payload as JSON")

	return cmd
}

func runCall(cmd *cobra.Command, opts *CallOptions, name string) error {
	var payload map[string]any
	if err := json.Unmarshal([]byte(opts.Payload), &payload); err != nil {
		return fmt.Errorf("invalid --payload JSON: %w", err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	mesh, err := newMesh(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer mesh.Close()

	env := mesh.Dispatch(cmd.Context(), name, payload)

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !env.OK {
		return fmt.Errorf("%s: %s", env.ErrorKind, env.Message)
	}
	return nil
}
