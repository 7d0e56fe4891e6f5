package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"promosweep/internal/config"
)

var cfgFile string

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := rootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "promosweep",
		Short: "Triage promotional mail by sender",
		Long: `promosweep scans a mailbox for promotional mail, groups it by sender and
asks for one decision per sender: keep ignoring it, trash all of its mail,
or skip it for now. Trash is reversible; nothing is erased permanently.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/promosweep/config.yaml)")
	root.PersistentFlags().String("provider", "", "mail provider: gmail or imap")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	addTriageFlags(root)

	root.AddCommand(triageCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(unsubscribeCmd())
	root.AddCommand(ignoredCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(initCmd())
	return root
}
