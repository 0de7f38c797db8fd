package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [BASE_URL]",
	Short: "Check a webexmcp-server's health endpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := settings.ChatAPIBase
		if len(args) == 1 {
			base = args[0]
		}
		url := strings.TrimRight(base, "/") + "/health"

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		var pretty bytes.Buffer
		if json.Indent(&pretty, body, "", "  ") == nil {
			body = pretty.Bytes()
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%s returned HTTP %d", url, resp.StatusCode)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
