package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"

	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"

	// DefaultGmailQuery selects Gmail's promotions tab.
	DefaultGmailQuery = "category:promotions"

	envPrefix = "PROMOSWEEP"
)

// GmailConfig holds the Gmail API settings.
type GmailConfig struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	TokenStore      string `mapstructure:"token_store" yaml:"token_store"`
	TokenFile       string `mapstructure:"token_file" yaml:"token_file"`
}

// IMAPConfig holds the IMAP account settings. Password may be left empty
// and kept in the keyring instead.
type IMAPConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Username     string `mapstructure:"username" yaml:"username"`
	Password     string `mapstructure:"password" yaml:"password"`
	TLS          bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox      string `mapstructure:"mailbox" yaml:"mailbox"`
	TrashMailbox string `mapstructure:"trash_mailbox" yaml:"trash_mailbox"`
}

// Config is the resolved application configuration.
type Config struct {
	Provider   string      `mapstructure:"provider" yaml:"provider"`
	Query      string      `mapstructure:"query" yaml:"query"`
	Budget     int         `mapstructure:"budget" yaml:"budget"`
	BatchSize  int         `mapstructure:"batch_size" yaml:"batch_size"`
	PageSize   int         `mapstructure:"page_size" yaml:"page_size"`
	IgnoreFile string      `mapstructure:"ignore_file" yaml:"ignore_file"`
	JournalDB  string      `mapstructure:"journal_db" yaml:"journal_db"`
	LogLevel   string      `mapstructure:"log_level" yaml:"log_level"`
	Gmail      GmailConfig `mapstructure:"gmail" yaml:"gmail"`
	IMAP       IMAPConfig  `mapstructure:"imap" yaml:"imap"`

	// Dir is the directory holding the config file and default state files.
	Dir string `mapstructure:"-" yaml:"-"`
}

// DefaultDir returns ~/.config/promosweep.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".promosweep")
	}
	return filepath.Join(home, ".config", "promosweep")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"provider":   "provider",
	"query":      "query",
	"budget":     "budget",
	"batch-size": "batch_size",
	"log-level":  "log_level",
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("provider", ProviderGmail)
	v.SetDefault("budget", 1000)
	v.SetDefault("batch_size", 10)
	v.SetDefault("page_size", 100)
	v.SetDefault("ignore_file", filepath.Join(dir, "ignored.yaml"))
	v.SetDefault("journal_db", filepath.Join(dir, "journal.db"))
	v.SetDefault("log_level", "warn")
	v.SetDefault("gmail.credentials_file", filepath.Join(dir, "client_secret.json"))
	v.SetDefault("gmail.token_store", TokenStoreFile)
	v.SetDefault("gmail.token_file", filepath.Join(dir, "token.json"))
	v.SetDefault("imap.host", "")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.trash_mailbox", "Trash")
}

// Load reads the YAML file at path, then applies PROMOSWEEP_* environment
// variables and any changed flags from flags (which may be nil). A missing
// file yields the defaults. The query defaults to Gmail's promotions tab
// only for the gmail provider.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	dir := filepath.Dir(path)
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, dir)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Dir = dir
	cfg.Query = v.GetString("query")
	if !v.IsSet("query") && cfg.Provider == ProviderGmail {
		cfg.Query = DefaultGmailQuery
	}
	return cfg, nil
}

// Validate checks the resolved configuration. Failures wrap ErrInvalid.
func (c *Config) Validate() error {
	var problems []string
	switch c.Provider {
	case ProviderGmail:
		switch c.Gmail.TokenStore {
		case TokenStoreFile, TokenStoreKeyring:
		default:
			problems = append(problems, fmt.Sprintf("gmail.token_store must be %q or %q, got %q", TokenStoreFile, TokenStoreKeyring, c.Gmail.TokenStore))
		}
	case ProviderIMAP:
		if c.IMAP.Host == "" {
			problems = append(problems, "imap.host is required")
		}
		if c.IMAP.Username == "" {
			problems = append(problems, "imap.username is required")
		}
		if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
			problems = append(problems, fmt.Sprintf("imap.port out of range: %d", c.IMAP.Port))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown provider %q", c.Provider))
	}
	if c.BatchSize < 1 {
		problems = append(problems, fmt.Sprintf("batch_size must be at least 1, got %d", c.BatchSize))
	}
	if c.Budget < 0 {
		problems = append(problems, fmt.Sprintf("budget must not be negative, got %d", c.Budget))
	}
	if c.PageSize < 1 {
		problems = append(problems, fmt.Sprintf("page_size must be at least 1, got %d", c.PageSize))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level: %v", err))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories. The IMAP
// password is never written; it belongs in the keyring.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("provider", cfg.Provider)
	v.Set("query", cfg.Query)
	v.Set("budget", cfg.Budget)
	v.Set("batch_size", cfg.BatchSize)
	v.Set("page_size", cfg.PageSize)
	v.Set("ignore_file", cfg.IgnoreFile)
	v.Set("journal_db", cfg.JournalDB)
	v.Set("log_level", cfg.LogLevel)
	v.Set("gmail.credentials_file", cfg.Gmail.CredentialsFile)
	v.Set("gmail.token_store", cfg.Gmail.TokenStore)
	v.Set("gmail.token_file", cfg.Gmail.TokenFile)
	v.Set("imap.host", cfg.IMAP.Host)
	v.Set("imap.port", cfg.IMAP.Port)
	v.Set("imap.username", cfg.IMAP.Username)
	v.Set("imap.tls", cfg.IMAP.TLS)
	v.Set("imap.mailbox", cfg.IMAP.Mailbox)
	v.Set("imap.trash_mailbox", cfg.IMAP.TrashMailbox)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
