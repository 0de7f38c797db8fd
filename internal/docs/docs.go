package docs

import (
	"bytes"
	"strings"
	"text/template"
)

// Tool documents one MCP tool exposed by the Contact Center server.
type Tool struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	HowToUseFromChat string   `json:"howToUseFromChat"`
	ExamplePrompts   []string `json:"examplePrompts"`
}

// Tools is the documented tool set, in display order.
var Tools = []Tool{
	{
		Name:             "cc_list_address_books",
		Description:      "Lists address books for the organization. Calls GET organization/{orgId}/v3/address-book. Requires an Organization ID, passed from Chat, as __orgId in MCP arguments, or set on the server as CONTACT_CENTER_ORG_ID.",
		HowToUseFromChat: "Set your Organization ID and access token, then ask for the address books. The assistant calls this tool and returns the list.",
		ExamplePrompts: []string{
			"What address books do you have?",
			"List all address books",
			"Show me the address books for my org",
		},
	},
	{
		Name:             "cc_end_task",
		Description:      "Ends (clears) an interaction by task ID. Calls POST v1/tasks/{taskID}/end. Uses the access token from Chat, __accessToken in MCP arguments, or the server environment.",
		HowToUseFromChat: "With your Org ID and token set, ask to end a specific task by ID.",
		ExamplePrompts: []string{
			"End task abc-123-def",
			"Clear the interaction for task xyz-456",
			"Close task 12345",
		},
	},
	{
		Name:             "cc_check_agent_outbound",
		Description:      "Checks whether an agent may place outbound calls. Looks the user up in the user bulk export to find the agent profile, then reads outdialEnabled from that agent profile.",
		HowToUseFromChat: "With your Org ID and token set, ask about a specific agent by email.",
		ExamplePrompts: []string{
			"Can agent john@company.com place outbound calls?",
			"Is outbound enabled for jane@example.com?",
			"Check if this agent has outdial: user@org.com",
		},
	},
}

// Lookup returns the tool called name.
func Lookup(name string) (Tool, bool) {
	for _, t := range Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

const markdownTmpl = `# Contact Center MCP tools

Use the chat with your Organization ID and access token, or any MCP client configured with this server.
Per-call credentials can be passed in tools/call arguments as ` + "`__accessToken`" + ` and ` + "`__orgId`" + `.
{{range .}}
## ` + "`{{.Name}}`" + `

{{.Description}}

**From chat:** {{.HowToUseFromChat}}

{{range .ExamplePrompts}}- "{{.}}"
{{end}}{{end}}`

var markdown = template.Must(template.New("tools").Parse(markdownTmpl))

// Render returns markdown documentation for tools.
func Render(tools []Tool) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Execute(&buf, tools); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}
