package clipboard

import (
	"github.com/atotto/clipboard"

	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
)

// WriteFunc writes text to a clipboard.
type WriteFunc func(text string) error

// Copier copies text to the system clipboard.
type Copier struct {
	write WriteFunc
}

// New returns a Copier backed by the system clipboard.
func New() *Copier {
	return &Copier{write: clipboard.WriteAll}
}

// NewWithWriter returns a Copier that writes through w.
func NewWithWriter(w WriteFunc) *Copier {
	return &Copier{write: w}
}

// Available reports whether a system clipboard tool was found.
func Available() bool {
	return !clipboard.Unsupported
}

// Copy writes text and reports whether it landed. Failures are swallowed.
func (c *Copier) Copy(text string) bool {
	if c == nil || c.write == nil {
		return false
	}
	return c.write(text) == nil
}

// CopyConfig copies cfg in its 2-space indented form.
func (c *Copier) CopyConfig(cfg mcpconfig.Config) bool {
	data, err := mcpconfig.Marshal(cfg)
	if err != nil {
		return false
	}
	return c.Copy(string(data))
}
