package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/DavidRHerbert/webex-mcp/internal/docs"
)

var docsRaw *bool

var docsCmd = &cobra.Command{
	Use:   "docs [TOOL]",
	Short: "Show how to use the Contact Center MCP tools from chat",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tools := docs.Tools
		if len(args) == 1 {
			t, ok := docs.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown tool %q", args[0])
			}
			tools = []docs.Tool{t}
		}

		md, err := docs.Render(tools)
		if err != nil {
			return err
		}
		if *docsRaw || !isatty.IsTerminal(os.Stdout.Fd()) {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("markdown renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("render docs: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	docsRaw = docsCmd.Flags().Bool("raw", false, "print markdown without styling")
	rootCmd.AddCommand(docsCmd)
}
