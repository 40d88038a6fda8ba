package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.HTBToken = "htb"
	cfg.NotionToken = "secret"
	cfg.NotionDatabaseID = "db"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://www.hackthebox.com/api/v4", cfg.HTBAPIBaseURL)
	assert.Equal(t, "https://api.notion.com/v1", cfg.NotionAPIBaseURL)
	assert.Equal(t, "2022-06-28", cfg.NotionVersion)
	assert.Equal(t, 50, cfg.HTBPageSize)
	assert.Zero(t, cfg.Timeout)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing tokens", func(t *testing.T) {
		cfg := Default()
		cfg.NotionToken = "secret"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "htb-token")
		assert.Contains(t, err.Error(), "notion-db")
		assert.NotContains(t, err.Error(), "notion-token")
	})

	t.Run("blank token", func(t *testing.T) {
		cfg := validConfig()
		cfg.HTBToken = "   "
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad page size", func(t *testing.T) {
		cfg := validConfig()
		cfg.HTBPageSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Timeout = -time.Second
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadTemplate(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		data, err := validConfig().LoadTemplate()
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "writeup.md")
		require.NoError(t, os.WriteFile(path, []byte("# Notes\n"), 0600))

		cfg := validConfig()
		cfg.TemplatePath = path
		data, err := cfg.LoadTemplate()
		require.NoError(t, err)
		assert.Equal(t, "# Notes\n", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := validConfig()
		cfg.TemplatePath = filepath.Join(t.TempDir(), "nope.md")
		_, err := cfg.LoadTemplate()
		assert.Error(t, err)
	})
}
