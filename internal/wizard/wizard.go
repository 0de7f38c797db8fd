package wizard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/DavidRHerbert/webex-mcp/internal/chat"
	"github.com/DavidRHerbert/webex-mcp/internal/clipboard"
	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
)

// Options configures the wizard behavior.
type Options struct {
	Accessible bool
	// Out receives the generated JSON and summaries. Defaults to stdout.
	Out io.Writer
	// Copier is used for the clipboard action. Nil disables it.
	Copier *clipboard.Copier
	// WorkspaceDir is where client config files are installed.
	WorkspaceDir string
	// Defaults pre-fill the messaging form.
	Defaults mcpconfig.Settings
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// Answers is everything the config form collects.
type Answers struct {
	Kind     profiles.Kind
	Settings mcpconfig.Settings
}

// forKind drops the messaging answers when the Contact Center was chosen,
// keeping only its name and URL.
func (a Answers) forKind(cc mcpconfig.Settings) Answers {
	if a.Kind != profiles.KindContactCenter {
		return a
	}
	return Answers{
		Kind:     a.Kind,
		Settings: mcpconfig.Settings{ServerName: cc.ServerName, URL: cc.URL},
	}
}

// Action is a follow-up chosen after the config is shown.
type Action string

const (
	ActionCopy          Action = "copy"
	ActionInstallCursor Action = "install-cursor"
	ActionInstallClaude Action = "install-claude"
)

// Result reports what RunConfig produced.
type Result struct {
	Answers   Answers
	Config    mcpconfig.Config
	JSON      []byte
	Copied    bool
	Installed []string
}

// RunConfig asks for connection settings, prints the generated config and
// applies the chosen actions.
func RunConfig(opts Options) (*Result, error) {
	a := Answers{Kind: profiles.KindMessaging, Settings: opts.Defaults}
	if a.Settings.Transport == "" {
		a.Settings.Transport = mcpconfig.TransportHTTP
	}
	var cc mcpconfig.Settings
	isCC := func() bool { return a.Kind == profiles.KindContactCenter }
	isMessaging := func() bool { return !isCC() }

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[profiles.Kind]().
				Title("Webex MCP config").
				Description("Which server are you connecting to?").
				Options(
					huh.NewOption("Webex messaging", profiles.KindMessaging),
					huh.NewOption("Webex Contact Center", profiles.KindContactCenter),
				).
				Value(&a.Kind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Server name").
				Description("Key under mcpServers; blank uses the default").
				Placeholder(mcpconfig.DefaultServerName).
				Value(&a.Settings.ServerName).
				Validate(ValidateServerName),
			huh.NewInput().
				Title("MCP URL").
				Placeholder(mcpconfig.DefaultURL).
				Value(&a.Settings.URL).
				Validate(ValidateURL),
		).WithHideFunc(isCC),
		huh.NewGroup(
			huh.NewInput().
				Title("Server name").
				Description("Key under mcpServers; blank uses the default").
				Placeholder(mcpconfig.DefaultContactCenterName).
				Value(&cc.ServerName).
				Validate(ValidateServerName),
			huh.NewInput().
				Title("MCP URL").
				Placeholder(mcpconfig.ContactCenterURL("")).
				Value(&cc.URL).
				Validate(ValidateURL),
		).WithHideFunc(isMessaging),
		huh.NewGroup(
			huh.NewSelect[mcpconfig.Transport]().
				Title("Transport").
				Options(
					huh.NewOption("http (remote or local server)", mcpconfig.TransportHTTP),
					huh.NewOption("stdio (client launches the server)", mcpconfig.TransportStdio),
				).
				Value(&a.Settings.Transport),
		).WithHideFunc(isCC),
		huh.NewGroup(
			huh.NewInput().
				Title("Webex API token").
				Description("Optional").
				EchoMode(huh.EchoModePassword).
				Value(&a.Settings.APIToken),
			huh.NewInput().
				Title("User email").
				Description("Optional").
				Value(&a.Settings.UserEmail).
				Validate(ValidateEmail),
			huh.NewInput().
				Title("Webex API base URL").
				Description("Optional").
				Value(&a.Settings.APIBase).
				Validate(ValidateURL),
			huh.NewInput().
				Title("Mode").
				Description("Optional").
				Value(&a.Settings.Mode),
			huh.NewInput().
				Title("Port").
				Description("Optional").
				Value(&a.Settings.Port).
				Validate(ValidatePort),
		).WithHideFunc(isCC),
	).WithAccessible(opts.Accessible)

	if err := form.Run(); err != nil {
		return nil, err
	}
	a = a.forKind(cc)

	res, err := Render(opts, a)
	if err != nil {
		return nil, err
	}

	var actions []Action
	actionForm := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[Action]().
				Title("What next?").
				Options(actionOptions(opts)...).
				Value(&actions),
		),
	).WithAccessible(opts.Accessible)
	if err := actionForm.Run(); err != nil {
		return nil, err
	}

	if err := Apply(opts, res, actions); err != nil {
		return res, err
	}
	return res, nil
}

func actionOptions(opts Options) []huh.Option[Action] {
	paths := mcpconfig.ClientPaths(opts.WorkspaceDir)
	var o []huh.Option[Action]
	if opts.Copier != nil {
		o = append(o, huh.NewOption("Copy to clipboard", ActionCopy))
	}
	return append(o,
		huh.NewOption("Install into "+paths[0], ActionInstallCursor),
		huh.NewOption("Install into "+paths[1], ActionInstallClaude),
	)
}

// Render builds the config for a and prints it.
func Render(opts Options, a Answers) (*Result, error) {
	p := profiles.Profile{Kind: a.Kind, Settings: a.Settings}
	cfg := p.Config("")
	data, err := mcpconfig.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintf(opts.out(), "\nGenerated config:\n\n%s\n\n", data)
	return &Result{Answers: a, Config: cfg, JSON: data}, nil
}

// Apply performs the chosen actions on res. Every install is attempted;
// the first failure is returned.
func Apply(opts Options, res *Result, actions []Action) error {
	paths := mcpconfig.ClientPaths(opts.WorkspaceDir)
	var firstErr error
	for _, act := range actions {
		switch act {
		case ActionCopy:
			res.Copied = opts.Copier.CopyConfig(res.Config)
			if res.Copied {
				fmt.Fprintln(opts.out(), "Copied to clipboard.")
			} else {
				fmt.Fprintln(opts.out(), "Clipboard unavailable; copy the JSON above.")
			}
		case ActionInstallCursor, ActionInstallClaude:
			path := paths[0]
			if act == ActionInstallClaude {
				path = paths[1]
			}
			if err := mcpconfig.Install(path, res.Config); err != nil {
				fmt.Fprintf(opts.out(), "Could not install into %s: %v\n", path, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			res.Installed = append(res.Installed, path)
			fmt.Fprintf(opts.out(), "Installed into %s\n", path)
		}
	}
	return firstErr
}

// AskCredentials prompts for whichever chat credentials are missing.
func AskCredentials(opts Options, creds *chat.Credentials) error {
	var fields []huh.Field
	if strings.TrimSpace(creds.OrgID) == "" {
		fields = append(fields, huh.NewInput().
			Title("Organization ID").
			Description("Optional; sent as orgId").
			Value(&creds.OrgID))
	}
	if strings.TrimSpace(creds.AccessToken) == "" {
		fields = append(fields, huh.NewInput().
			Title("Access token").
			EchoMode(huh.EchoModePassword).
			Value(&creds.AccessToken).
			Validate(ValidateRequired("access token")))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithAccessible(opts.Accessible).Run()
}

// DefaultWorkspaceDir is the current directory, resolved.
func DefaultWorkspaceDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(wd)
}
