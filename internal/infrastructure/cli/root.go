package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nix-humanity/ask-nix/internal/app"
	"github.com/nix-humanity/ask-nix/internal/domain"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// ExitCodeError carries a process exit code for failed dispatches whose
// output has already been rendered.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// queryFlags are shared between the root command and the query subcommand
// so bare invocations like "ask-nix install firefox --execute" work.
type queryFlags struct {
	execute bool
	dryRun  bool
	summary bool
	yes     bool
	debug   bool
	persona string
	timeout time.Duration
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose, NewPrompter(nil, nil))
	if err != nil {
		return nil, err
	}

	var rootFlags queryFlags
	var diagnose bool
	root := &cobra.Command{
		Use:   "ask-nix [query]",
		Short: "ask-nix - natural language NixOS assistant",
		Long: "ask-nix turns plain-English requests into nix, nixos-rebuild and\n" +
			"systemctl commands. Commands are previewed by default; pass --execute\n" +
			"to run them for real.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if diagnose {
				report, err := container.DoctorService.Run(cmd.Context())
				renderDoctorReport(cmd.OutOrStdout(), report)
				return err
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return runQuery(cmd, container, rootFlags, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       appVersion,
	}
	addQueryFlags(root, &rootFlags)
	root.Flags().BoolVar(&diagnose, "diagnose", false, "Run environment diagnostics instead of a query")

	root.AddCommand(newQueryCommand(container))
	root.AddCommand(newSearchCommand(container))
	root.AddCommand(newDoctorCommand(container))
	root.AddCommand(newConfigCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newCacheCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}

func newQueryCommand(container *app.Container) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "query [natural language]",
		Short: "Interpret a natural-language request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, container, flags, args)
		},
	}
	addQueryFlags(cmd, &flags)
	return cmd
}

func addQueryFlags(cmd *cobra.Command, flags *queryFlags) {
	cmd.Flags().BoolVarP(&flags.execute, "execute", "x", false, "Run the command instead of previewing it")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Force a preview even when execution is the configured default")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "Print a single-line summary instead of the full response")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip confirmation prompts (guardrail blocks still apply)")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Show recognized intent and rendered command")
	cmd.Flags().StringVarP(&flags.persona, "persona", "p", "", "Response persona (minimal|friendly|encouraging|technical|symbiotic)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Override command timeout (default from config)")
}

func runQuery(cmd *cobra.Command, container *app.Container, flags queryFlags, args []string) error {
	ctx := cmd.Context()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	var persona domain.Persona
	if flags.persona != "" {
		parsed, err := domain.ParsePersona(flags.persona)
		if err != nil {
			return err
		}
		persona = parsed
	}

	req := domain.QueryRequest{
		Context:     ctx,
		Text:        strings.Join(args, " "),
		Persona:     persona,
		Execute:     flags.execute,
		DryRun:      flags.dryRun,
		AutoConfirm: flags.yes,
		Summary:     flags.summary,
		Debug:       flags.debug,
	}
	resp, err := container.QueryService.Run(req)
	if err != nil {
		return err
	}
	RenderResponse(cmd.OutOrStdout(), resp, flags.debug)

	if !resp.Succeeded() {
		code := 1
		if resp.Result != nil && resp.Result.ExitCode > 0 {
			code = resp.Result.ExitCode
		}
		return &ExitCodeError{Code: code}
	}
	return nil
}
