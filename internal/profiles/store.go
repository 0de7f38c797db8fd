package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
)

// Kind selects which config builder a profile feeds.
type Kind string

const (
	KindMessaging     Kind = "messaging"
	KindContactCenter Kind = "contact-center"
)

// ParseKind maps user input to a Kind; anything unrecognised is messaging.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contact-center", "cc", "contactcenter":
		return KindContactCenter
	default:
		return KindMessaging
	}
}

// Profile is a named set of connection settings. The API token is never
// persisted.
type Profile struct {
	Name      string             `json:"name"`
	Kind      Kind               `json:"kind"`
	Settings  mcpconfig.Settings `json:"settings"`
	Version   int64              `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Config builds the MCP client config for p. origin is only used by
// Contact Center profiles without a URL.
func (p *Profile) Config(origin string) mcpconfig.Config {
	if p.Kind == KindContactCenter {
		return mcpconfig.BuildContactCenter(p.Settings.ServerName, p.Settings.URL, origin)
	}
	return mcpconfig.Build(p.Settings)
}

// Summary is a profile without its settings, used for listing.
type Summary struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store provides CRUD operations on the profiles table.
type Store struct {
	db *sql.DB
}

// New creates a new Store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// parseTime accepts both SQLite's datetime() text and the RFC 3339 form
// the driver yields for DATETIME columns.
func parseTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// List returns summaries of all profiles ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, kind, version, updated_at FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var items []Summary
	for rows.Next() {
		var item Summary
		var updatedAt string
		if err := rows.Scan(&item.Name, &item.Kind, &item.Version, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		item.UpdatedAt = parseTime(updatedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get retrieves a profile by name. Returns sql.ErrNoRows if not found.
func (s *Store) Get(ctx context.Context, name string) (*Profile, error) {
	var p Profile
	var raw []byte
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, kind, settings, version, updated_at FROM profiles WHERE name = ?`, name).
		Scan(&p.Name, &p.Kind, &raw, &p.Version, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.Settings); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", name, err)
	}
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// Put creates or replaces a profile. Version auto-increments on update.
func (s *Store) Put(ctx context.Context, name string, kind Kind, settings mcpconfig.Settings) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	settings.APIToken = ""
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (name, kind, settings, version, updated_at)
		 VALUES (?, ?, ?, 1, datetime('now'))
		 ON CONFLICT(name) DO UPDATE SET
			kind = excluded.kind,
			settings = excluded.settings,
			version = profiles.version + 1,
			updated_at = datetime('now')`,
		name, string(kind), raw)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return s.Get(ctx, name)
}

// Delete removes a profile by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
