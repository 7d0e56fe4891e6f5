package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, ProviderGmail, cfg.Provider)
	assert.Equal(t, DefaultGmailQuery, cfg.Query)
	assert.Equal(t, 1000, cfg.Budget)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "ignored.yaml"), cfg.IgnoreFile)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.JournalDB)
	assert.Equal(t, filepath.Join(dir, "client_secret.json"), cfg.Gmail.CredentialsFile)
	assert.Equal(t, TokenStoreFile, cfg.Gmail.TokenStore)
	assert.Equal(t, 993, cfg.IMAP.Port)
	assert.True(t, cfg.IMAP.TLS)
	assert.Equal(t, "INBOX", cfg.IMAP.Mailbox)
	assert.Equal(t, "Trash", cfg.IMAP.TrashMailbox)
	assert.Equal(t, dir, cfg.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
provider: imap
budget: 0
batch_size: 5
journal_db: ""
imap:
  host: mail.example.com
  username: me@example.com
  tls: false
  trash_mailbox: Deleted Items
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ProviderIMAP, cfg.Provider)
	assert.Empty(t, cfg.Query, "no gmail query default for imap")
	assert.Equal(t, 0, cfg.Budget)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Empty(t, cfg.JournalDB)
	assert.Equal(t, "mail.example.com", cfg.IMAP.Host)
	assert.False(t, cfg.IMAP.TLS)
	assert.Equal(t, "Deleted Items", cfg.IMAP.TrashMailbox)
	assert.Equal(t, 993, cfg.IMAP.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "batch_size: 5\n")
	t.Setenv("PROMOSWEEP_BATCH_SIZE", "7")
	t.Setenv("PROMOSWEEP_QUERY", "from:news@x.com")
	t.Setenv("PROMOSWEEP_IMAP_HOST", "imap.x.com")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.BatchSize)
	assert.Equal(t, "from:news@x.com", cfg.Query)
	assert.Equal(t, "imap.x.com", cfg.IMAP.Host)
}

func TestLoad_ChangedFlagsWin(t *testing.T) {
	path := writeConfig(t, "budget: 50\nbatch_size: 5\n")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("budget", 1000, "")
	flags.Int("batch-size", 10, "")
	flags.String("query", "", "")
	require.NoError(t, flags.Parse([]string{"--budget", "20", "--query", "label:news"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Budget)
	assert.Equal(t, 5, cfg.BatchSize, "unchanged flag leaves the file value")
	assert.Equal(t, "label:news", cfg.Query)
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "provider: [gmail\n")
	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"), nil)
		require.NoError(t, err)
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "pop3" }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"negative budget", func(c *Config) { c.Budget = -1 }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad token store", func(c *Config) { c.Gmail.TokenStore = "vault" }},
		{"imap without host", func(c *Config) { c.Provider = ProviderIMAP; c.IMAP.Username = "u" }},
		{"imap without user", func(c *Config) { c.Provider = ProviderIMAP; c.IMAP.Host = "h" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	cfg.Provider = ProviderIMAP
	cfg.Query = "subject:sale"
	cfg.BatchSize = 3
	cfg.IMAP.Host = "imap.example.com"
	cfg.IMAP.Username = "me"
	cfg.IMAP.Password = "secret"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderIMAP, loaded.Provider)
	assert.Equal(t, "subject:sale", loaded.Query)
	assert.Equal(t, 3, loaded.BatchSize)
	assert.Equal(t, "imap.example.com", loaded.IMAP.Host)
	assert.Empty(t, loaded.IMAP.Password, "password stays out of the file")
}
