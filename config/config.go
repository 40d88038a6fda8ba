package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// HTBBaseURL is the site origin used to resolve machine avatars
	HTBBaseURL = "https://www.hackthebox.com"

	// HTBAPIBaseURL is the root of the HTB v4 API
	HTBAPIBaseURL = HTBBaseURL + "/api/v4"

	// NotionAPIBaseURL is the root of the Notion REST API
	NotionAPIBaseURL = "https://api.notion.com/v1"

	// NotionVersion is sent as the Notion-Version header on every request
	NotionVersion = "2022-06-28"

	// HTBUserAgent is required by the HTB API, which rejects default Go clients
	HTBUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0"

	// DefaultHTBPageSize is the per_page value used on the HTB list endpoints
	DefaultHTBPageSize = 50
)

// Config represents the application configuration
type Config struct {
	// HTB App Token
	HTBToken string

	// Notion integration secret
	NotionToken string

	// Target Notion database ID
	NotionDatabaseID string

	// Enable debug logging
	Debug bool

	// Emit JSON log lines instead of console output
	LogJSON bool

	// Plan and log actions without writing to Notion
	DryRun bool

	// Path to the SQLite sync journal (optional)
	JournalPath string

	// Path to write Prometheus metrics in textfile format (optional)
	MetricsFile string

	// Path to a markdown writeup template overriding the built-in one (optional)
	TemplatePath string

	// HTTP client timeout; zero means no timeout
	Timeout time.Duration

	HTBBaseURL       string
	HTBAPIBaseURL    string
	HTBPageSize      int
	HTBUserAgent     string
	NotionAPIBaseURL string
	NotionVersion    string
}

// Default returns a configuration with the public API endpoints filled in
func Default() *Config {
	return &Config{
		HTBBaseURL:       HTBBaseURL,
		HTBAPIBaseURL:    HTBAPIBaseURL,
		HTBPageSize:      DefaultHTBPageSize,
		HTBUserAgent:     HTBUserAgent,
		NotionAPIBaseURL: NotionAPIBaseURL,
		NotionVersion:    NotionVersion,
	}
}

// Validate checks that all required values are set
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.HTBToken) == "" {
		missing = append(missing, "htb-token")
	}
	if strings.TrimSpace(c.NotionToken) == "" {
		missing = append(missing, "notion-token")
	}
	if strings.TrimSpace(c.NotionDatabaseID) == "" {
		missing = append(missing, "notion-db")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required values: %s", strings.Join(missing, ", "))
	}

	if c.HTBPageSize <= 0 {
		return fmt.Errorf("invalid HTB page size %d", c.HTBPageSize)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// LoadTemplate reads the configured writeup template.
// Returns nil when no template path is set so the built-in one is used.
func (c *Config) LoadTemplate() ([]byte, error) {
	if c.TemplatePath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return data, nil
}
