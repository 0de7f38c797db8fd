package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/probe"
)

var (
	probeToken   *string
	probeHeaders *[]string
	probeJSON    *bool
)

var probeCmd = &cobra.Command{
	Use:   "probe [URL]",
	Short: "Connect to an MCP server and list its tools",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := settings.MCPURL
		if len(args) == 1 {
			url = args[0]
		}

		headers := map[string]string{}
		for _, h := range *probeHeaders {
			k, v, ok := strings.Cut(h, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return fmt.Errorf("invalid header %q, want Name=value", h)
			}
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		if tok := pick(*probeToken, settings.AccessToken); tok != "" {
			headers[mcpconfig.HeaderAuthorization] = "Bearer " + tok
		}

		res, err := probe.Run(cmd.Context(), url, headers)
		if err != nil {
			return err
		}

		if *probeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (protocol %s)\n\n", res.ServerName, res.ServerVersion, res.ProtocolVersion)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "TOOL\tDESCRIPTION")
		for _, t := range res.Tools {
			fmt.Fprintf(w, "%s\t%s\n", t.Name, firstLine(t.Description))
		}
		return nil
	},
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func init() {
	probeToken = probeCmd.Flags().String("token", "", "bearer token for the MCP server (default: access_token setting)")
	probeHeaders = probeCmd.Flags().StringArray("header", nil, "extra header Name=value (repeatable)")
	probeJSON = probeCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(probeCmd)
}
