package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"promosweep/internal/config"
)

// initAnswers are the raw form values of promosweep init.
type initAnswers struct {
	Provider     string
	Query        string
	Budget       string
	BatchSize    string
	Host         string
	Port         string
	Username     string
	Password     string
	TrashMailbox string
}

func answersFrom(cfg *config.Config) initAnswers {
	return initAnswers{
		Provider:     cfg.Provider,
		Query:        cfg.Query,
		Budget:       strconv.Itoa(cfg.Budget),
		BatchSize:    strconv.Itoa(cfg.BatchSize),
		Host:         cfg.IMAP.Host,
		Port:         strconv.Itoa(cfg.IMAP.Port),
		Username:     cfg.IMAP.Username,
		TrashMailbox: cfg.IMAP.TrashMailbox,
	}
}

// apply copies the answers into cfg and validates the result.
func (a initAnswers) apply(cfg *config.Config) error {
	budget, err := strconv.Atoi(strings.TrimSpace(a.Budget))
	if err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	batch, err := strconv.Atoi(strings.TrimSpace(a.BatchSize))
	if err != nil {
		return fmt.Errorf("batch size: %w", err)
	}
	cfg.Provider = a.Provider
	cfg.Query = strings.TrimSpace(a.Query)
	cfg.Budget = budget
	cfg.BatchSize = batch
	if a.Provider == config.ProviderIMAP {
		port, err := strconv.Atoi(strings.TrimSpace(a.Port))
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.IMAP.Host = strings.TrimSpace(a.Host)
		cfg.IMAP.Port = port
		cfg.IMAP.Username = strings.TrimSpace(a.Username)
		cfg.IMAP.TrashMailbox = strings.TrimSpace(a.TrashMailbox)
	}
	return cfg.Validate()
}

func validateInt(name string, min int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", name)
		}
		if n < min {
			return fmt.Errorf("%s must be at least %d", name, min)
		}
		return nil
	}
}

func validateRequired(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func initForm(a *initAnswers) *huh.Form {
	notIMAP := func() bool { return a.Provider != config.ProviderIMAP }
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Mail provider").
				Options(
					huh.NewOption("Gmail - Gmail API with OAuth", config.ProviderGmail),
					huh.NewOption("IMAP - any IMAP server", config.ProviderIMAP),
				).
				Value(&a.Provider),
			huh.NewInput().
				Title("Search query").
				Description("Gmail search syntax; IMAP supports from:, to:, subject: and plain words").
				Placeholder(config.DefaultGmailQuery).
				Value(&a.Query),
			huh.NewInput().
				Title("Scan budget").
				Description("Maximum messages scanned per run, 0 for no limit").
				Value(&a.Budget).
				Validate(validateInt("Budget", 0)),
			huh.NewInput().
				Title("Batch size").
				Description("Senders shown per decision prompt").
				Value(&a.BatchSize).
				Validate(validateInt("Batch size", 1)),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP host").
				Placeholder("imap.example.com").
				Value(&a.Host).
				Validate(validateRequired("Host")),
			huh.NewInput().
				Title("IMAP port").
				Value(&a.Port).
				Validate(validateInt("Port", 1)),
			huh.NewInput().
				Title("Username").
				Value(&a.Username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring, never in the config file").
				EchoMode(huh.EchoModePassword).
				Value(&a.Password),
			huh.NewInput().
				Title("Trash mailbox").
				Value(&a.TrashMailbox).
				Validate(validateRequired("Trash mailbox")),
		).WithHideFunc(notIMAP),
	)
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath()
			cfg, err := config.Load(path, nil)
			if err != nil {
				return err
			}
			answers := answersFrom(cfg)
			if err := initForm(&answers).Run(); err != nil {
				return err
			}
			if err := answers.apply(cfg); err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)

			if cfg.Provider == config.ProviderIMAP && answers.Password != "" {
				a := &app{cfg: cfg}
				s, err := a.secrets()
				if err != nil {
					return err
				}
				if err := s.Set(imapPasswordKey(cfg.IMAP.Username), answers.Password); err != nil {
					return err
				}
				fmt.Println("Stored IMAP password in the keyring")
			}
			if cfg.Provider == config.ProviderGmail {
				fmt.Printf("Place your OAuth client secret at %s\n", cfg.Gmail.CredentialsFile)
			}
			return nil
		},
	}
}
