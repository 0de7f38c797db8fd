package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/DavidRHerbert/webex-mcp/internal/chat"
	"github.com/DavidRHerbert/webex-mcp/internal/observability"
	"github.com/DavidRHerbert/webex-mcp/internal/wizard"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	toolStyle      = lipgloss.NewStyle().Faint(true)
)

var (
	chatAPIBase *string
	chatMCPURL  *string
	chatOrgID   *string
	chatToken   *string
	chatTimeout *string
	chatPlain   *bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [PROMPT...]",
	Short: "Chat with the backend; with no prompt, start an interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("timeout") {
			settings.Timeout = *chatTimeout
		}
		timeout, err := settings.RequestTimeout()
		if err != nil {
			return err
		}

		creds := chat.Credentials{
			MCPServerURL: pick(*chatMCPURL, settings.MCPURL),
			AccessToken:  pick(*chatToken, settings.AccessToken),
			OrgID:        pick(*chatOrgID, settings.OrgID),
		}
		interactive := isatty.IsTerminal(os.Stdin.Fd())
		if creds.AccessToken == "" && interactive {
			if err := wizard.AskCredentials(wizard.Options{Accessible: *accessible}, &creds); err != nil {
				return err
			}
		}

		client := chat.NewClient(pick(*chatAPIBase, settings.ChatAPIBase))
		client.Timeout = timeout
		session := chat.NewSession(client, creds, logger)
		if !session.Ready() {
			return fmt.Errorf("an access token is required: pass --token, set %s, or run `webexmcp settings set access_token ...`", "WEBEXMCP_ACCESS_TOKEN")
		}

		r := &transcriptRenderer{out: cmd.OutOrStdout(), plain: *chatPlain || !isatty.IsTerminal(os.Stdout.Fd())}

		if len(args) > 0 {
			msg := submit(cmd, session, r, strings.Join(args, " "))
			if msg.IsError {
				return errSilent
			}
			return nil
		}

		if interactive {
			fmt.Fprintln(cmd.ErrOrStderr(), "Type a prompt and press Enter. /quit to exit.")
		}
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			if interactive {
				fmt.Fprint(cmd.ErrOrStderr(), userStyle.Render("> "))
			}
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "/quit" || line == "/exit" {
				return nil
			}
			if line == "" {
				continue
			}
			submit(cmd, session, r, line)
			if cmd.Context().Err() != nil {
				return nil
			}
		}
	},
}

// submit sends one prompt with a spinner running and renders the reply.
func submit(cmd *cobra.Command, session *chat.Session, r *transcriptRenderer, prompt string) chat.Message {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	sp.Suffix = " waiting for reply"
	if !r.plain {
		sp.Start()
	}
	msg, err := session.Submit(cmd.Context(), prompt)
	sp.Stop()

	if err != nil {
		// Nothing was sent.
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(err.Error()))
		return chat.Message{IsError: true, Content: err.Error()}
	}
	if msg.IsError {
		record(cmd.Context(), observability.MetricChatFailed)
	}
	r.render(msg)
	return msg
}

// transcriptRenderer prints assistant messages, styled when attached to a
// terminal.
type transcriptRenderer struct {
	out   io.Writer
	plain bool
	md    *glamour.TermRenderer
}

func (t *transcriptRenderer) render(m chat.Message) {
	if t.plain {
		fmt.Fprintln(t.out, m.Content)
		for _, tc := range m.ToolCalls {
			fmt.Fprintf(t.out, "[tool] %s\n", tc.Name)
		}
		return
	}

	if m.IsError {
		fmt.Fprintln(t.out, errorStyle.Render(m.Content))
		return
	}
	fmt.Fprintln(t.out, assistantStyle.Render("assistant"))
	fmt.Fprintln(t.out, t.markdown(m.Content))
	for _, tc := range m.ToolCalls {
		fmt.Fprintln(t.out, toolStyle.Render("  used "+tc.Name))
	}
}

func (t *transcriptRenderer) markdown(text string) string {
	if t.md == nil {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return text
		}
		t.md = r
	}
	styled, err := t.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(styled, "\n")
}

// pick returns the first non-blank value.
func pick(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func init() {
	fs := chatCmd.Flags()
	chatAPIBase = fs.String("api-base", "", "chat API base URL (default from settings)")
	chatMCPURL = fs.String("mcp-url", "", "MCP server URL sent with each prompt")
	chatOrgID = fs.String("org-id", "", "Webex organization ID")
	chatToken = fs.String("token", "", "Webex access token")
	chatTimeout = fs.String("timeout", "", "per-request timeout, e.g. 90s; 0 waits forever")
	chatPlain = fs.Bool("plain", false, "no colors, markdown or spinner")
	rootCmd.AddCommand(chatCmd)
}
