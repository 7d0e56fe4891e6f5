package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"promosweep/internal/config"
	"promosweep/internal/credential"
	"promosweep/internal/gmail"
	"promosweep/internal/imapmail"
	"promosweep/internal/store"
	"promosweep/internal/triage"
)

const gmailTokenKey = "gmail-token"

// app carries the resolved configuration and shared services of one run.
type app struct {
	cfg *config.Config
	log *logrus.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(resolveConfigPath(), cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"provider": cfg.Provider,
		"config":   resolveConfigPath(),
	}).Debug("config loaded")
	return &app{cfg: cfg, log: log}, nil
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return log, nil
}

func (a *app) secrets() (*credential.Store, error) {
	return credential.Open(filepath.Join(a.cfg.Dir, "keyring"))
}

func imapPasswordKey(username string) string {
	return "imap:" + username
}

// provider connects to the configured mailbox. The returned close func
// releases the connection.
func (a *app) provider(ctx context.Context) (triage.Provider, func() error, error) {
	noop := func() error { return nil }
	switch a.cfg.Provider {
	case config.ProviderGmail:
		var tokens credential.TokenStore = credential.FileTokenStore{Path: a.cfg.Gmail.TokenFile}
		if a.cfg.Gmail.TokenStore == config.TokenStoreKeyring {
			s, err := a.secrets()
			if err != nil {
				return nil, nil, err
			}
			tokens = credential.KeyringTokenStore{Store: s, Key: gmailTokenKey}
		}
		svc, err := gmail.NewService(ctx, a.cfg.Gmail.CredentialsFile, tokens, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("gmail auth: %w", err)
		}
		return gmail.NewClient(svc, a.log), noop, nil

	case config.ProviderIMAP:
		ic := a.cfg.IMAP
		password := ic.Password
		if password == "" {
			s, err := a.secrets()
			if err != nil {
				return nil, nil, err
			}
			password, err = s.Get(imapPasswordKey(ic.Username))
			if err != nil {
				if errors.Is(err, credential.ErrNotFound) {
					return nil, nil, fmt.Errorf("no IMAP password for %s: set imap.password or run promosweep init", ic.Username)
				}
				return nil, nil, err
			}
		}
		c := imapmail.New(imapmail.Config{
			Host:         ic.Host,
			Port:         ic.Port,
			Username:     ic.Username,
			Password:     password,
			TLS:          ic.TLS,
			Mailbox:      ic.Mailbox,
			TrashMailbox: ic.TrashMailbox,
		}, a.log)
		if err := c.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalid, a.cfg.Provider)
}

// journal opens the decision journal. It returns nil when journaling is
// disabled.
func (a *app) journal() (*store.SQLiteStore, error) {
	if a.cfg.JournalDB == "" {
		return nil, nil
	}
	db, err := store.NewSQLiteStore(a.cfg.JournalDB)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return db, nil
}
