package wizard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidateServerName allows blank (default name) but rejects whitespace
// inside a name.
func ValidateServerName(s string) error {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, " \t") {
		return fmt.Errorf("server name cannot contain spaces")
	}
	return nil
}

// ValidateURL accepts blank or an absolute http(s) URL.
func ValidateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("must be an http:// or https:// URL")
	}
	return nil
}

// ValidateEmail accepts blank or something shaped like an address.
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return fmt.Errorf("not an email address")
	}
	return nil
}

// ValidatePort accepts blank or 1-65535.
func ValidatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

// ValidateRequired rejects blank input for the named field.
func ValidateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}
