package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"promosweep/internal/console"
	"promosweep/internal/ignore"
	"promosweep/internal/model"
	"promosweep/internal/store"
	"promosweep/internal/triage"
	"promosweep/internal/util"
)

func addTriageFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "search query (default category:promotions for gmail)")
	cmd.Flags().Int("budget", 1000, "maximum messages to scan, 0 for no limit")
	cmd.Flags().Int("batch-size", triage.DefaultBatchSize, "senders per decision batch")
	cmd.Flags().Bool("plain", false, "use a plain line prompt instead of the interactive one")
}

func triageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Scan, rank senders and decide per sender (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd)
		},
	}
	addTriageFlags(cmd)
	return cmd
}

func runTriage(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	plain, _ := cmd.Flags().GetBool("plain")

	ignores, err := ignore.Load(a.cfg.IgnoreFile)
	if err != nil {
		return err
	}
	db, err := a.journal()
	if err != nil {
		return err
	}
	var journal triage.Journal
	if db != nil {
		defer db.Close()
		journal = db
	}

	provider, closeProvider, err := a.provider(ctx)
	if err != nil {
		return err
	}
	defer closeProvider()

	con := console.New(os.Stdin, os.Stdout, plain)
	session := triage.NewSession(triage.Config{
		Provider:  provider,
		Console:   con,
		Ignores:   ignores,
		Journal:   journal,
		Log:       a.log,
		BatchSize: a.cfg.BatchSize,
	})
	res, err := session.Triage(ctx, a.cfg.Query, a.cfg.PageSize, a.cfg.Budget)
	if err != nil {
		return err
	}
	con.PrintLine(fmt.Sprintf("Ignored %d, cleared %d (%d emails moved to trash), skipped %d",
		res.Ignored, res.Deleted, res.Trashed, res.Skipped))
	return nil
}

func deleteCmd() *cobra.Command {
	var (
		yes   bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "delete <sender>",
		Short: "Move every message from a sender to the trash",
		Long: `Move every message whose From matches sender to the trash. The sender is
matched as given, for example "Shop <deals@shop.com>". With --max the sweep
stops after that many messages.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sender := args[0]
			if limit < 0 {
				return fmt.Errorf("--max must be 0 or more, got %d", limit)
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			if !yes {
				if !console.Interactive(os.Stdin) {
					return errors.New("refusing to delete without --yes when not interactive")
				}
				confirmed := false
				err := huh.NewConfirm().
					Title(fmt.Sprintf("Move all mail from %s to the trash?", util.DisplayName(sender))).
					Description(sender).
					Affirmative("Trash").
					Negative("Cancel").
					Value(&confirmed).
					Run()
				if err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}

			provider, closeProvider, err := a.provider(ctx)
			if err != nil {
				return err
			}
			defer closeProvider()

			out := console.NewLine(os.Stdin, os.Stdout)
			n, delErr := triage.NewDeleter(provider, out, a.log).DeleteUpTo(ctx, sender, "", limit)

			db, err := a.journal()
			if err != nil {
				a.log.WithError(err).Warn("journal unavailable")
			} else if db != nil {
				defer db.Close()
				entry := model.JournalEntry{
					ID:        uuid.NewString(),
					Sender:    sender,
					Decision:  model.DecisionDeleteAll,
					Trashed:   n,
					CreatedAt: time.Now(),
				}
				if err := db.RecordDecision(ctx, entry); err != nil {
					a.log.WithError(err).Warn("record decision")
				}
			}
			if delErr != nil {
				return fmt.Errorf("deleting mail from %s after %d emails: %w", sender, n, delErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().IntVar(&limit, "max", 0, "stop after trashing this many messages, 0 for no limit")
	return cmd
}

func unsubscribeCmd() *cobra.Command {
	var noOpen bool
	cmd := &cobra.Command{
		Use:   "unsubscribe <sender>",
		Short: "Show and open the unsubscribe link of a sender's newest message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sender := args[0]
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			provider, closeProvider, err := a.provider(ctx)
			if err != nil {
				return err
			}
			defer closeProvider()

			s, err := triage.Latest(ctx, provider, sender)
			if err != nil {
				return err
			}
			fmt.Printf("Subject: %s\n", s.Subject)
			if s.Unsubscribe == "" {
				fmt.Printf("No unsubscribe link found for %s\n", sender)
				return nil
			}
			fmt.Printf("Unsubscribe: %s\n", s.Unsubscribe)

			link := util.HTTPUnsubscribeURL(s.Unsubscribe)
			if link == "" || noOpen {
				return nil
			}
			if err := util.OpenLink(link); err != nil {
				return fmt.Errorf("open browser: %w", err)
			}
			fmt.Printf("Opened %s\n", link)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "print the link without opening a browser")
	return cmd
}

func ignoredCmd() *cobra.Command {
	var (
		remove string
		plain  bool
	)
	cmd := &cobra.Command{
		Use:   "ignored",
		Short: "List or edit the ignored senders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			list, err := ignore.Load(a.cfg.IgnoreFile)
			if err != nil {
				return err
			}

			if remove != "" {
				ok, err := list.Remove(remove)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s is not ignored", remove)
				}
				fmt.Printf("Removed %s\n", remove)
				return nil
			}

			if list.Len() == 0 {
				fmt.Println("No ignored senders")
				return nil
			}
			if plain || !console.Interactive(os.Stdin) || !console.Interactive(os.Stdout) {
				for _, s := range list.Senders() {
					fmt.Println(s)
				}
				return nil
			}

			term := console.NewTerminal(os.Stdin, os.Stdout)
			removed, err := term.PickRemovals(fmt.Sprintf("Ignored senders (%s)", list.Path()), list.Senders())
			if err != nil {
				return err
			}
			for _, s := range removed {
				if _, err := list.Remove(s); err != nil {
					return err
				}
				fmt.Printf("Removed %s\n", s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&remove, "remove", "", "stop ignoring this exact sender")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the list instead of opening the picker")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent triage decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			db, err := a.journal()
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("journal disabled: journal_db is empty")
			}
			defer db.Close()

			return writeHistory(cmd.Context(), os.Stdout, db, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries, 0 for all")
	return cmd
}

func writeHistory(ctx context.Context, w io.Writer, db *store.SQLiteStore, limit int) error {
	entries, err := db.Decisions(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No decisions recorded")
		return nil
	}
	fmt.Fprintln(w, historyTable(entries))
	total, err := db.CountDecisions(ctx)
	if err != nil {
		return err
	}
	if total > len(entries) {
		fmt.Fprintf(w, "Showing %d of %d decisions, use --limit 0 for all\n", len(entries), total)
	}
	return nil
}

func historyTable(entries []model.JournalEntry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "DECISION", "SENDER", "TRASHED")
	for _, e := range entries {
		trashed := ""
		if e.Decision == model.DecisionDeleteAll {
			trashed = fmt.Sprintf("%d", e.Trashed)
		}
		t.Row(e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Decision.String(), e.Sender, trashed)
	}
	return t.String()
}
